// ABOUTME: PhaseOrchestrator drives the fixed premise-to-prose pipeline
// ABOUTME: Every phase reuses persisted results before paying a generator call
package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/models"
	"github.com/AuthorWorks/bookforge/internal/outline"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

// Orchestrator runs the phase state machine for one project. Phases are
// strictly sequential; the only skipping is reuse of persisted output.
type Orchestrator struct {
	store   *storage.ProjectStore
	scanner *storage.Scanner
	gen     llm.Generator
	svc     *PipelineServices
	cfg     *config.Config

	gctx  *models.GenerationContext
	book  *models.Book
	state *storage.ProjectState
}

// NewOrchestrator wires an orchestrator for a project directory. All
// collaborators come in explicitly so tests can substitute fakes.
func NewOrchestrator(store *storage.ProjectStore, gen llm.Generator, svc *PipelineServices, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:   store,
		scanner: storage.NewScanner(cfg.CompletionThreshold),
		gen:     gen,
		svc:     svc,
		cfg:     cfg,
	}
}

// Run resumes the pipeline from whatever the project directory already
// holds and drives it to completion. Given only the directory it
// reconstructs context, outline, and per-scene completion state; the
// caller never specifies how far along the project is.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.store.IsComplete() {
		log.Printf("[Orchestrator] project already complete, nothing to do")
		return nil
	}

	if err := o.restore(); err != nil {
		return err
	}
	if o.state.Complete {
		log.Printf("[Orchestrator] artifacts meet completion heuristic, marking complete")
		return o.store.MarkComplete()
	}

	for _, phase := range models.PhaseOrder {
		if phase == models.PhaseDone {
			break
		}
		log.Printf("[Orchestrator] entering phase %s", phase)
		if err := o.runPhase(ctx, phase); err != nil {
			return fmt.Errorf("phase %s: %w", phase, err)
		}
	}

	log.Printf("[Orchestrator] all phases complete")
	return o.store.MarkComplete()
}

// Book returns the assembled book after a run.
func (o *Orchestrator) Book() *models.Book {
	return o.book
}

// restore rebuilds GenerationContext and the partially assembled book
// from persisted metadata and scanned artifacts.
func (o *Orchestrator) restore() error {
	meta, err := o.store.LoadMetadata()
	if err != nil {
		log.Printf("[Orchestrator] metadata unreadable, starting from artifacts only: %v", err)
		meta = &storage.Metadata{Entries: map[string]storage.MetadataEntry{}}
	}

	o.gctx = &models.GenerationContext{Title: meta.Title}
	for _, phase := range []models.Phase{models.PhasePremise, models.PhaseGenre, models.PhaseStyle, models.PhaseCast, models.PhaseSynopsis} {
		if entry, ok := meta.Entries[string(phase)]; ok && strings.TrimSpace(entry.Text) != "" {
			o.applyPhase(phase, entry.Text)
		}
	}

	state, err := o.scanner.Scan(o.store.Dir())
	if err != nil {
		return err
	}
	o.state = state
	if state.Outline != nil {
		o.gctx.Outline = *state.Outline
	}

	o.book = &models.Book{Title: o.gctx.Title}
	for i := range o.gctx.Outline.Chapters {
		if err := o.restoreChapter(&o.gctx.Outline.Chapters[i]); err != nil {
			return err
		}
	}
	return nil
}

// restoreChapter rebuilds one chapter from discovered artifacts, pairing
// scene content to outline positions by extracted numbers.
func (o *Orchestrator) restoreChapter(chOut *models.ChapterOutline) error {
	st := o.state.Chapters[chOut.Number]
	if st == nil || (!st.HasOutline && !st.HasFull && st.Outline == nil) {
		return nil
	}

	var chapter *models.Chapter
	switch {
	case st.Full != nil:
		chapter = st.Full
	default:
		if len(chOut.Scenes) == 0 && st.Outline != nil && len(st.Outline.Scenes) > 0 {
			chOut.Scenes = st.Outline.Scenes
		}
		if len(chOut.Scenes) == 0 && st.OutlinePath != "" {
			if raw, err := os.ReadFile(st.OutlinePath); err == nil {
				if parsed := outline.ParseChapter(string(raw)); len(parsed.Scenes) > 0 {
					chOut.Scenes = parsed.Scenes
				}
			}
		}
		chapter = &models.Chapter{Number: chOut.Number, Title: chOut.Title, Outline: *chOut}
	}
	o.ensureScenes(chapter)

	for i := range chapter.Scenes {
		sc := &chapter.Scenes[i]
		ss := st.Scenes[sc.Outline.Number]
		if ss == nil || !ss.HasContent || !sc.Content.IsEmpty() {
			continue
		}
		data, err := os.ReadFile(ss.ContentPath)
		if err != nil {
			log.Printf("[Orchestrator] scene %d.%d content unreadable, will regenerate: %v",
				chapter.Number, sc.Outline.Number, err)
			continue
		}
		sc.Content = models.Content{
			Text:          string(data),
			ChapterNumber: chapter.Number,
			SceneNumber:   sc.Outline.Number,
		}
	}

	return o.book.AddChapter(chapter)
}

// ensureScenes materializes a Scene per outline scene, preserving any
// already present.
func (o *Orchestrator) ensureScenes(chapter *models.Chapter) {
	for _, sc := range chapter.Outline.Scenes {
		if chapter.Scene(sc.Number) == nil {
			chapter.Scenes = append(chapter.Scenes, models.Scene{Title: sc.Title, Outline: sc})
		}
	}
}

func (o *Orchestrator) runPhase(ctx context.Context, phase models.Phase) error {
	switch phase {
	case models.PhasePremise, models.PhaseGenre, models.PhaseStyle, models.PhaseCast, models.PhaseSynopsis:
		return o.runTextPhase(ctx, phase)
	case models.PhaseOutline:
		return o.runOutlinePhase(ctx)
	case models.PhaseChapters:
		return o.runChaptersPhase(ctx)
	case models.PhaseScenes:
		return o.runScenesPhase(ctx)
	case models.PhaseProse:
		return o.runProsePhase(ctx)
	}
	return nil
}

// runTextPhase handles the five free-text phases from premise through
// synopsis.
func (o *Orchestrator) runTextPhase(ctx context.Context, phase models.Phase) error {
	if o.gctx.HasPhase(phase) {
		log.Printf("[Orchestrator] reusing persisted %s", phase)
		return nil
	}
	if err := o.requireUpstream(phase); err != nil {
		return err
	}

	summary, err := o.summarize(ctx, string(phase), 0, o.upstreamContext())
	if err != nil {
		return err
	}
	o.gctx.LastSummary = &summary

	text, err := o.generate(ctx, string(phase), 0, 0, buildPhasePrompt(phase, o.gctx, &summary))
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty %s output", models.ErrGeneration, phase)
	}

	o.applyPhase(phase, text)
	if err := o.store.SetPhaseResult(phase, text); err != nil {
		return err
	}
	if err := o.store.WriteArtifact(fmt.Sprintf("%s.md", phase), text); err != nil {
		return err
	}
	o.gctx.AppendHistory(phase, text)
	return nil
}

func (o *Orchestrator) runOutlinePhase(ctx context.Context) error {
	if !o.gctx.Outline.IsEmpty() {
		log.Printf("[Orchestrator] reusing persisted outline (%d chapters)", o.gctx.Outline.ChapterCount())
		return nil
	}
	if err := o.requireUpstream(models.PhaseOutline); err != nil {
		return err
	}

	summary, err := o.summarize(ctx, string(models.PhaseOutline), 0, o.upstreamContext())
	if err != nil {
		return err
	}
	o.gctx.LastSummary = &summary

	text, err := o.generate(ctx, string(models.PhaseOutline), 0, 0, buildPhasePrompt(models.PhaseOutline, o.gctx, &summary))
	if err != nil {
		return err
	}
	if err := o.store.WriteArtifact(storage.RawOutlineFile(), text); err != nil {
		return err
	}

	parsed := outline.Parse(text)
	if parsed.IsEmpty() {
		return fmt.Errorf("%w: outline phase produced no chapters", models.ErrGeneration)
	}

	o.gctx.Outline = parsed
	if err := o.store.SaveOutline(&o.gctx.Outline); err != nil {
		return err
	}
	if err := o.store.SetPhaseResult(models.PhaseOutline, text); err != nil {
		return err
	}
	o.gctx.AppendHistory(models.PhaseOutline, text)
	return nil
}

// runChaptersPhase expands every outline chapter into a detailed chapter
// outline and registers it with the book, enforcing the chapter-count
// and duplicate-title invariants.
func (o *Orchestrator) runChaptersPhase(ctx context.Context) error {
	if o.gctx.Outline.IsEmpty() {
		return fmt.Errorf("%w: chapters phase requires an outline", models.ErrMissingContext)
	}

	total := o.gctx.Outline.ChapterCount()
	for i := range o.gctx.Outline.Chapters {
		chOut := &o.gctx.Outline.Chapters[i]
		n := chOut.Number
		if n > total {
			return fmt.Errorf("%w: chapter %d exceeds outline length %d", models.ErrGeneration, n, total)
		}
		if n > o.cfg.MaxChapters {
			return fmt.Errorf("%w: chapter %d exceeds configured maximum %d", models.ErrGeneration, n, o.cfg.MaxChapters)
		}
		if o.book.Chapter(n) != nil {
			log.Printf("[Orchestrator] chapter %d already expanded, skipping", n)
			continue
		}

		summary, err := o.summarize(ctx, "chapter_plan", n, o.upstreamContext())
		if err != nil {
			return err
		}

		text, err := o.generate(ctx, string(models.PhaseChapters), n, 0, buildChapterPrompt(o.gctx, chOut, &summary))
		if err != nil {
			return err
		}

		detailed := outline.ParseChapter(text)
		title := chOut.Title
		if detailed.Title != "" {
			title = detailed.Title
		}
		if len(chOut.Scenes) == 0 && len(detailed.Scenes) > 0 {
			chOut.Scenes = detailed.Scenes
		}

		chapter := &models.Chapter{Number: n, Title: title, Outline: *chOut}
		o.ensureScenes(chapter)
		if err := o.book.AddChapter(chapter); err != nil {
			return err
		}

		if err := o.store.WriteArtifact(storage.ChapterOutlineFile(n), text); err != nil {
			return err
		}
		if err := o.store.SaveChapter(chapter); err != nil {
			return err
		}
	}

	o.gctx.Outline.Normalize()
	return o.store.SaveOutline(&o.gctx.Outline)
}

// runScenesPhase expands scene outlines chapter by chapter. A chapter
// whose outline has no scenes is skipped, not an error.
func (o *Orchestrator) runScenesPhase(ctx context.Context) error {
	if len(o.book.Chapters) == 0 {
		return fmt.Errorf("%w: scenes phase requires expanded chapters", models.ErrMissingContext)
	}

	for n := 1; n <= o.gctx.Outline.ChapterCount(); n++ {
		chapter := o.book.Chapter(n)
		if chapter == nil {
			continue
		}
		if len(chapter.Outline.Scenes) == 0 {
			log.Printf("[Orchestrator] chapter %d has no scene outlines, skipping scene generation", n)
			continue
		}

		st := o.state.Chapters[n]
		for i := range chapter.Outline.Scenes {
			sc := &chapter.Outline.Scenes[i]
			if st != nil {
				if ss := st.Scenes[sc.Number]; ss != nil && ss.HasOutline {
					continue
				}
			}

			text, err := o.generate(ctx, string(models.PhaseScenes), n, sc.Number, buildScenePrompt(o.gctx, chapter, sc))
			if err != nil {
				return err
			}
			if err := o.store.WriteArtifact(storage.SceneOutlineFile(n, sc.Number), text); err != nil {
				return err
			}

			sc.Description = strings.TrimSpace(text)
			if scene := chapter.Scene(sc.Number); scene != nil {
				scene.Outline.Description = sc.Description
			}
		}

		if err := o.store.SaveChapter(chapter); err != nil {
			return err
		}
	}
	return nil
}

// runProsePhase generates scene prose in ascending scene order, skipping
// scenes that already hold content. Each new scene's text rolls into the
// chapter-level temporary summary so later scenes get continuity context
// without re-deriving it.
func (o *Orchestrator) runProsePhase(ctx context.Context) error {
	if len(o.book.Chapters) == 0 {
		return fmt.Errorf("%w: prose phase requires expanded chapters", models.ErrMissingContext)
	}

	for n := 1; n <= o.gctx.Outline.ChapterCount(); n++ {
		chapter := o.book.Chapter(n)
		if chapter == nil || len(chapter.Scenes) == 0 {
			log.Printf("[Orchestrator] chapter %d has no scenes, skipping prose", n)
			continue
		}

		base := fmt.Sprintf("%s\n\nChapter %d: %s\n%s",
			o.gctx.Synopsis, n, chapter.Title, chapter.Outline.Description)
		rolling, err := o.summarize(ctx, "chapter_summary", n, base)
		if err != nil {
			return err
		}

		for i := range chapter.Scenes {
			sc := &chapter.Scenes[i]
			s := sc.Outline.Number
			if !sc.Content.IsEmpty() {
				log.Printf("[Orchestrator] scene %d.%d already has content, skipping", n, s)
				continue
			}

			text, err := o.generate(ctx, string(models.PhaseProse), n, s, buildProsePrompt(o.gctx, chapter, sc, &rolling))
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("%w: empty prose for scene %d.%d", models.ErrGeneration, n, s)
			}

			sc.Content = models.Content{Text: text, ChapterNumber: n, SceneNumber: s}
			if err := o.store.WriteArtifact(storage.SceneContentFile(n, s), text); err != nil {
				return err
			}

			rolling.Summary += fmt.Sprintf("\n\nScene %d: %s", s, continuationCue(text))
			rolling.Continuation = continuationCue(text)
			if err := o.svc.Cache.Put("chapter_summary", n, base, rolling); err != nil {
				log.Printf("[Orchestrator] could not persist rolling summary for chapter %d: %v", n, err)
			}
		}

		chapter.AssembleProse()
		if err := o.store.WriteArtifact(storage.ChapterContentFile(n), chapter.Prose); err != nil {
			return err
		}
		if err := o.store.SaveChapter(chapter); err != nil {
			return err
		}
	}
	return nil
}

// generate performs one generator call, tracking usage and recording the
// call in the ledger.
func (o *Orchestrator) generate(ctx context.Context, phase string, chapter, scene int, prompt string) (string, error) {
	start := time.Now()
	text, usage, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	o.svc.Usage.Add(usage)

	if o.svc.Ledger != nil {
		rec := storage.CallRecord{
			Phase:    phase,
			Chapter:  chapter,
			Scene:    scene,
			Model:    o.cfg.ChatModel,
			Duration: time.Since(start),
		}
		if usage != nil {
			rec.PromptTokens = usage.PromptTokens
			rec.CompletionTokens = usage.CompletionTokens
		}
		if err := o.svc.Ledger.Record(rec); err != nil {
			log.Printf("[Orchestrator] ledger write failed: %v", err)
		}
	}
	return text, nil
}

// summarize produces the cache-backed temporary summary for a phase or
// chapter. A hit costs nothing; a miss costs exactly one generator call.
func (o *Orchestrator) summarize(ctx context.Context, prefix string, index int, upstream string) (models.TemporarySummary, error) {
	return o.svc.Cache.GetOrCompute(prefix, index, upstream, o.cfg.SummaryTTL,
		func(context string) (models.TemporarySummary, error) {
			text, err := o.generate(ctx, "summary", index, 0, buildSummaryPrompt(context))
			if err != nil {
				return models.TemporarySummary{}, err
			}
			summary, continuation := splitSummary(text)
			return models.TemporarySummary{Summary: summary, Continuation: continuation}, nil
		})
}

// splitSummary separates the trailing continuation cue the digest prompt
// asks for from the summary body.
func splitSummary(text string) (summary, continuation string) {
	const cueMarker = "CONTINUE FROM:"
	if i := strings.LastIndex(text, cueMarker); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+len(cueMarker):])
	}
	return strings.TrimSpace(text), ""
}

// upstreamContext concatenates everything upstream phases produced, in
// phase order, as the input to summary fingerprinting.
func (o *Orchestrator) upstreamContext() string {
	var parts []string
	parts = append(parts, "Title: "+o.gctx.Title)
	if o.gctx.Premise != "" {
		parts = append(parts, "Premise:\n"+o.gctx.Premise)
	}
	if o.gctx.Genre.Name != "" {
		parts = append(parts, "Genre: "+o.gctx.Genre.Name+"\n"+o.gctx.Genre.Description)
	}
	if o.gctx.Style != "" {
		parts = append(parts, "Style:\n"+o.gctx.Style)
	}
	if len(o.gctx.Cast) > 0 {
		parts = append(parts, "Cast:\n"+strings.Join(o.gctx.Cast, "\n"))
	}
	if o.gctx.Synopsis != "" {
		parts = append(parts, "Synopsis:\n"+o.gctx.Synopsis)
	}
	return strings.Join(parts, "\n\n")
}

// applyPhase folds a phase output into the generation context.
func (o *Orchestrator) applyPhase(phase models.Phase, text string) {
	text = strings.TrimSpace(text)
	switch phase {
	case models.PhasePremise:
		o.gctx.Premise = text
	case models.PhaseGenre:
		o.gctx.Genre = parseGenre(text)
	case models.PhaseStyle:
		o.gctx.Style = text
	case models.PhaseCast:
		o.gctx.Cast = parseCast(text)
	case models.PhaseSynopsis:
		o.gctx.Synopsis = text
	}
}

// requireUpstream verifies the inputs a phase depends on are present.
// In a linear run these cannot be missing; a hand-edited project can
// violate them.
func (o *Orchestrator) requireUpstream(phase models.Phase) error {
	missing := func(what string) error {
		return fmt.Errorf("%w: %s phase requires %s", models.ErrMissingContext, phase, what)
	}
	switch phase {
	case models.PhasePremise:
		if o.gctx.Title == "" {
			return missing("a project title")
		}
	case models.PhaseGenre, models.PhaseStyle, models.PhaseCast, models.PhaseSynopsis:
		if o.gctx.Premise == "" {
			return missing("a premise")
		}
	case models.PhaseOutline:
		if o.gctx.Synopsis == "" {
			return missing("a synopsis")
		}
	}
	return nil
}

// parseGenre splits a genre phase output into name and description.
func parseGenre(text string) models.Genre {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	name := strings.TrimSpace(strings.TrimPrefix(lines[0], "Genre:"))
	desc := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return models.Genre{Name: name, Description: desc}
}

// parseCast splits a cast phase output into one entry per non-empty
// line, tolerating bullet prefixes.
func parseCast(text string) []string {
	var cast []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-* "))
		if line != "" {
			cast = append(cast, line)
		}
	}
	return cast
}
