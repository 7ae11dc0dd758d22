// ABOUTME: Heuristic parser that turns free-form generator text into an Outline
// ABOUTME: Line-oriented greedy state machine, total on arbitrary input
package outline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/AuthorWorks/bookforge/internal/models"
)

// sceneSeparators are the characters that split a scene marker line into
// marker and title.
const sceneSeparators = ":-."

// Parse converts free-form generator text into a normalized Outline.
// It never fails: unstructured input degrades to a single chapter whose
// description is the raw input. Callers treat an empty Outline as a
// fatal "no chapters produced" condition for the outline phase.
func Parse(text string) models.Outline {
	var (
		out   models.Outline
		cur   *models.ChapterOutline
		scene *models.SceneOutline
	)

	closeScene := func() {
		if cur != nil && scene != nil {
			cur.Scenes = append(cur.Scenes, *scene)
		}
		scene = nil
	}
	closeChapter := func() {
		closeScene()
		if cur != nil {
			if cur.Number == 0 {
				cur.Number = len(out.Chapters) + 1
			}
			out.Chapters = append(out.Chapters, *cur)
		}
		cur = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case isChapterMarker(line):
			closeChapter()
			cur = &models.ChapterOutline{
				Number: extractNumber(line, "Chapter"),
				Title:  line,
			}
		case cur == nil:
			// Preamble before any chapter marker. Ignored here; if the
			// whole input has no markers the raw-input fallback below
			// recovers it.
			continue
		case isSceneMarker(line):
			closeScene()
			scene = &models.SceneOutline{
				Number: extractNumber(line, "Scene"),
				Title:  sceneTitle(line),
			}
		case cur.Description == "" && scene == nil:
			cur.Description = line
		case scene == nil:
			// Unmarked line after the chapter description: the generator
			// omitted an explicit scene marker.
			scene = &models.SceneOutline{Title: line}
		case scene.Description == "":
			scene.Description = line
		default:
			closeScene()
			scene = &models.SceneOutline{Title: line}
		}
	}
	closeChapter()

	if out.IsEmpty() && strings.TrimSpace(text) != "" {
		out.Chapters = append(out.Chapters, models.ChapterOutline{Description: text})
	}

	for i := range out.Chapters {
		recoverInlineScenes(&out.Chapters[i])
	}
	out.Normalize()
	return out
}

// ParseChapter applies the same heuristics to text describing a single
// chapter and returns the first chapter found. Empty input yields a zero
// ChapterOutline; that is not an error for this sub-parser.
func ParseChapter(text string) models.ChapterOutline {
	out := Parse(text)
	if out.IsEmpty() {
		return models.ChapterOutline{}
	}
	return out.Chapters[0]
}

// isChapterMarker reports whether a trimmed line opens a new chapter.
func isChapterMarker(line string) bool {
	if strings.HasPrefix(line, "Chapter ") || strings.HasPrefix(line, "CHAPTER ") {
		return true
	}
	if line == "Introduction" || line == "Conclusion" {
		return true
	}
	if strings.HasPrefix(line, "Prologue") || strings.HasPrefix(line, "Epilogue") {
		return true
	}
	return strings.Contains(line, "Chapter") && strings.Contains(line, ":")
}

// isSceneMarker reports whether a trimmed line opens a new scene.
func isSceneMarker(line string) bool {
	if strings.HasPrefix(line, "Scene ") {
		return true
	}
	return strings.Contains(line, "Scene") && strings.ContainsAny(line, sceneSeparators)
}

// sceneTitle extracts the title from a scene marker line: the text after
// the first separator, falling back to the whole line.
func sceneTitle(line string) string {
	if i := strings.IndexAny(line, sceneSeparators); i >= 0 {
		if title := strings.TrimSpace(line[i+1:]); title != "" {
			return title
		}
	}
	return line
}

// extractNumber pulls the integer following a keyword like "Chapter" or
// "Scene" out of a marker line, or 0 when none parses. Zeroes are
// replaced positionally by Outline.Normalize.
func extractNumber(line, keyword string) int {
	i := strings.Index(line, keyword)
	if i < 0 {
		return 0
	}
	rest := strings.TrimSpace(line[i+len(keyword):])
	end := 0
	for end < len(rest) && unicode.IsDigit(rune(rest[end])) {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}

// recoverInlineScenes handles chapters whose scenes were embedded inside
// the description rather than emitted as top-level lines. The
// description is re-scanned with the same marker rules.
func recoverInlineScenes(ch *models.ChapterOutline) {
	if len(ch.Scenes) > 0 || strings.TrimSpace(ch.Description) == "" {
		return
	}

	var (
		kept  []string
		scene *models.SceneOutline
	)
	closeScene := func() {
		if scene != nil {
			ch.Scenes = append(ch.Scenes, *scene)
		}
		scene = nil
	}

	for _, raw := range strings.Split(ch.Description, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case isSceneMarker(line):
			closeScene()
			scene = &models.SceneOutline{
				Number: extractNumber(line, "Scene"),
				Title:  sceneTitle(line),
			}
		case scene != nil && scene.Description == "":
			scene.Description = line
		case scene != nil:
			scene.Description += "\n" + line
		default:
			kept = append(kept, line)
		}
	}
	closeScene()

	if len(ch.Scenes) > 0 {
		ch.Description = strings.Join(kept, "\n")
	}
}
