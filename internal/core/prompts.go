// ABOUTME: Prompt templates and builders for every pipeline phase
// ABOUTME: Assembles sectioned prompts from GenerationContext and summaries
package core

import (
	"fmt"
	"strings"

	"github.com/AuthorWorks/bookforge/internal/models"
)

const summarySystemPrompt = `You are a continuity assistant for a book generation pipeline.
Summarize the material below into a compact digest that preserves every
plot-relevant fact: character names, established genre and style, open
threads, and where the narrative currently stands. End with a single
"CONTINUE FROM:" line stating the exact point the next section should
pick up from. Keep the whole digest under 400 words.`

var phaseInstructions = map[models.Phase]string{
	models.PhasePremise:  "Write a one-paragraph premise for a book with this title. State the protagonist, the central conflict, and the stakes.",
	models.PhaseGenre:    "Choose the single genre that best fits this premise. Reply with the genre name on the first line, then one paragraph describing its conventions as they apply to this book.",
	models.PhaseStyle:    "Describe the prose style this book should be written in: narrative voice, tense, tone, and pacing. One paragraph.",
	models.PhaseCast:     "List the main characters for this book, one per line, as 'Name - one-sentence description'. Between three and eight characters.",
	models.PhaseSynopsis: "Write a full synopsis of this book in three to six paragraphs, covering the complete arc from opening to resolution.",
	models.PhaseOutline: "Write a chapter-by-chapter outline for this book. Format each chapter as 'Chapter N: Title' on its own line, " +
		"followed by a one-line description, followed by its scenes as 'Scene M: Title' lines each with a one-line description.",
}

// buildSummaryPrompt wraps upstream context for the digest call backing
// the content-addressed cache.
func buildSummaryPrompt(context string) string {
	return summarySystemPrompt + "\n\nMATERIAL:\n" + context
}

// buildPhasePrompt assembles the prompt for one of the text phases
// (premise through outline) from the accumulated context and the cached
// temporary summary.
func buildPhasePrompt(phase models.Phase, gctx *models.GenerationContext, summary *models.TemporarySummary) string {
	var sections []string

	sections = append(sections, "TITLE:\n"+gctx.Title)
	if gctx.Premise != "" && phase != models.PhasePremise {
		sections = append(sections, "PREMISE:\n"+gctx.Premise)
	}
	if gctx.Genre.Name != "" && phase != models.PhaseGenre {
		sections = append(sections, "GENRE:\n"+gctx.Genre.Name+"\n"+gctx.Genre.Description)
	}
	if gctx.Style != "" && phase != models.PhaseStyle {
		sections = append(sections, "STYLE:\n"+gctx.Style)
	}
	if len(gctx.Cast) > 0 && phase != models.PhaseCast {
		sections = append(sections, "CAST:\n"+strings.Join(gctx.Cast, "\n"))
	}
	if gctx.Synopsis != "" && phase != models.PhaseSynopsis {
		sections = append(sections, "SYNOPSIS:\n"+gctx.Synopsis)
	}
	if summary != nil && summary.Summary != "" {
		sections = append(sections, "CONTEXT DIGEST:\n"+summary.Summary)
	}

	sections = append(sections, "TASK:\n"+phaseInstructions[phase])
	return strings.Join(sections, "\n\n")
}

// buildChapterPrompt asks for the detailed outline of a single chapter.
func buildChapterPrompt(gctx *models.GenerationContext, ch *models.ChapterOutline, summary *models.TemporarySummary) string {
	var sections []string
	sections = append(sections, "TITLE:\n"+gctx.Title)
	if summary != nil && summary.Summary != "" {
		sections = append(sections, "CONTEXT DIGEST:\n"+summary.Summary)
	}
	sections = append(sections, fmt.Sprintf("CHAPTER %d PLAN:\n%s\n%s", ch.Number, ch.Title, ch.Description))
	sections = append(sections,
		fmt.Sprintf("TASK:\nExpand chapter %d into a detailed chapter outline. Start with 'Chapter %d: Title' on the first line, "+
			"then a short description, then list its scenes as 'Scene M: Title' lines each followed by a one-line description.",
			ch.Number, ch.Number))
	return strings.Join(sections, "\n\n")
}

// buildScenePrompt asks for the expanded outline of a single scene.
func buildScenePrompt(gctx *models.GenerationContext, ch *models.Chapter, sc *models.SceneOutline) string {
	var sections []string
	sections = append(sections, "TITLE:\n"+gctx.Title)
	sections = append(sections, fmt.Sprintf("CHAPTER %d:\n%s\n%s", ch.Number, ch.Title, ch.Outline.Description))
	sections = append(sections, fmt.Sprintf("SCENE %d PLAN:\n%s\n%s", sc.Number, sc.Title, sc.Description))
	sections = append(sections,
		fmt.Sprintf("TASK:\nExpand scene %d of chapter %d into a detailed scene outline: setting, characters present, "+
			"what happens, and how it ends. One or two paragraphs.", sc.Number, ch.Number))
	return strings.Join(sections, "\n\n")
}

// buildProsePrompt asks for the prose of a single scene, carrying the
// rolling chapter summary for continuity.
func buildProsePrompt(gctx *models.GenerationContext, ch *models.Chapter, sc *models.Scene, summary *models.TemporarySummary) string {
	var sections []string
	sections = append(sections, "TITLE:\n"+gctx.Title)
	if gctx.Style != "" {
		sections = append(sections, "STYLE:\n"+gctx.Style)
	}
	if summary != nil && summary.Summary != "" {
		sections = append(sections, "STORY SO FAR:\n"+summary.Summary)
	}
	if summary != nil && summary.Continuation != "" {
		sections = append(sections, "CONTINUE FROM:\n"+summary.Continuation)
	}
	sections = append(sections, fmt.Sprintf("SCENE %d OF CHAPTER %d:\n%s\n%s",
		sc.Outline.Number, ch.Number, sc.Title, sc.Outline.Description))
	sections = append(sections,
		"TASK:\nWrite the full prose for this scene in the established style. Prose only, no headings or commentary.")
	return strings.Join(sections, "\n\n")
}

// continuationCue extracts the trailing excerpt of generated text used
// as the "continue from" cue in rolling summaries.
func continuationCue(text string) string {
	const cueLen = 500
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= cueLen {
		return string(runes)
	}
	return string(runes[len(runes)-cueLen:])
}
