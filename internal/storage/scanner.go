// ABOUTME: Read-only scanner that reconstructs pipeline state from artifacts
// ABOUTME: Lets the orchestrator resume from a directory alone
package storage

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AuthorWorks/bookforge/internal/models"
	"github.com/AuthorWorks/bookforge/internal/outline"
)

// SceneState reports which artifacts exist for one scene. Paths point at
// the discovered files so callers can read them back regardless of which
// naming convention produced them.
type SceneState struct {
	HasOutline  bool
	HasContent  bool
	OutlinePath string
	ContentPath string
}

// ChapterState reports which artifacts exist for one chapter, plus any
// chapter outline recovered from a structured or raw artifact.
type ChapterState struct {
	HasOutline  bool
	HasContent  bool
	HasFull     bool
	OutlinePath string
	ContentPath string
	Scenes      map[int]*SceneState
	Outline     *models.ChapterOutline
	Full        *models.Chapter
}

// ProjectState is everything the scanner could reconstruct about a
// project directory.
type ProjectState struct {
	Complete   bool
	Outline    *models.Outline
	RawOutline string
	Chapters   map[int]*ChapterState
}

// chapterState returns the state for a chapter, creating it on demand.
func (s *ProjectState) chapterState(number int) *ChapterState {
	st, ok := s.Chapters[number]
	if !ok {
		st = &ChapterState{Scenes: map[int]*SceneState{}}
		s.Chapters[number] = st
	}
	return st
}

// sceneState returns the state for a scene, creating it on demand.
func (c *ChapterState) sceneState(number int) *SceneState {
	st, ok := c.Scenes[number]
	if !ok {
		st = &SceneState{}
		c.Scenes[number] = st
	}
	return st
}

// Scanner inspects a project's log and cache directories and reports
// what already exists. It never mutates or deletes discovered files.
type Scanner struct {
	// completionThreshold is the fraction of outline chapters that must
	// have both outline and content artifacts before the project counts
	// as fully generated. A tolerance band, not exact equality: legacy
	// artifacts are occasionally missing without real incompleteness.
	completionThreshold float64
}

// NewScanner builds a scanner with the given completion threshold.
func NewScanner(completionThreshold float64) *Scanner {
	if completionThreshold <= 0 || completionThreshold > 1 {
		completionThreshold = 0.8
	}
	return &Scanner{completionThreshold: completionThreshold}
}

// Scan reconstructs the state of a project directory.
func (s *Scanner) Scan(dir string) (*ProjectState, error) {
	state := &ProjectState{Chapters: map[int]*ChapterState{}}

	if _, err := os.Stat(filepath.Join(dir, completeMarker)); err == nil {
		state.Complete = true
	}

	s.loadOutline(dir, state)
	s.scanLogs(dir, state)

	if !state.Complete && state.Outline != nil {
		state.Complete = s.meetsCompletionHeuristic(state)
	}
	return state, nil
}

// loadOutline reads outline.json, falling back to heuristic parsing of
// the raw outline artifact when the JSON is missing or corrupt.
func (s *Scanner) loadOutline(dir string, state *ProjectState) {
	data, err := os.ReadFile(filepath.Join(dir, outlineFile))
	if err == nil {
		var o models.Outline
		if jsonErr := json.Unmarshal(data, &o); jsonErr == nil && !o.IsEmpty() {
			state.Outline = &o
			return
		}
		log.Printf("[Scanner] outline.json corrupt, falling back to raw outline text")
	}

	raw, err := os.ReadFile(filepath.Join(dir, logsDirName, RawOutlineFile()))
	if err != nil {
		return
	}
	state.RawOutline = string(raw)
	if o := outline.Parse(string(raw)); !o.IsEmpty() {
		state.Outline = &o
	}
}

// scanLogs walks logs/ and classifies every artifact it recognizes.
func (s *Scanner) scanLogs(dir string, state *ProjectState) {
	entries, err := os.ReadDir(filepath.Join(dir, logsDirName))
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		c, ok := classifyArtifact(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, logsDirName, entry.Name())

		switch c.Kind {
		case ArtifactChapterOutline:
			st := state.chapterState(c.Chapter)
			if !st.HasOutline {
				st.HasOutline = true
				st.OutlinePath = path
			}
		case ArtifactChapterContent:
			st := state.chapterState(c.Chapter)
			if !st.HasContent {
				st.HasContent = true
				st.ContentPath = path
			}
		case ArtifactSceneOutline:
			st := state.chapterState(c.Chapter).sceneState(c.Scene)
			if !st.HasOutline {
				st.HasOutline = true
				st.OutlinePath = path
			}
		case ArtifactSceneContent:
			st := state.chapterState(c.Chapter).sceneState(c.Scene)
			if !st.HasContent {
				st.HasContent = true
				st.ContentPath = path
			}
		case ArtifactChapterFull:
			s.loadFullChapter(path, c.Chapter, state)
		case ArtifactRawOutline:
			if state.RawOutline == "" {
				if raw, err := os.ReadFile(path); err == nil {
					state.RawOutline = string(raw)
				}
			}
		}
	}

	// Scene content is paired to outline positions by extracted numbers,
	// not by file order, so recovered chapter outlines can be trimmed to
	// what actually exists.
	for number, ch := range state.Chapters {
		if ch.Outline != nil && ch.Outline.Number == 0 {
			ch.Outline.Number = number
		}
	}
}

// loadFullChapter reads a structured chapter artifact, recovering a
// usable ChapterOutline via the heuristic parser when deserialization
// fails. Never fatal.
func (s *Scanner) loadFullChapter(path string, number int, state *ProjectState) {
	st := state.chapterState(number)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Scanner] unreadable chapter artifact %s: %v", path, err)
		return
	}

	var ch models.Chapter
	if err := json.Unmarshal(data, &ch); err == nil && ch.Title != "" {
		st.HasFull = true
		st.Full = &ch
		st.Outline = &ch.Outline
		if st.Outline.Number == 0 {
			st.Outline.Number = number
		}
		return
	}

	log.Printf("[Scanner] chapter artifact %s failed to deserialize, using heuristic parser", path)
	recovered := outline.ParseChapter(string(data))
	if recovered.Title == "" && recovered.Description == "" {
		return
	}
	if recovered.Number == 0 {
		recovered.Number = number
	}
	st.Outline = &recovered
}

// meetsCompletionHeuristic applies the fuzzy completion band: the count
// of chapters with both outline and content artifacts must reach the
// threshold fraction of the chapter count the persisted outline implies.
func (s *Scanner) meetsCompletionHeuristic(state *ProjectState) bool {
	total := state.Outline.ChapterCount()
	if total == 0 {
		return false
	}
	done := 0
	for _, ch := range state.Chapters {
		if ch.HasOutline && ch.HasContent {
			done++
		}
	}
	return float64(done) >= s.completionThreshold*float64(total)
}
