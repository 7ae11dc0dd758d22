// ABOUTME: Tests for the phase orchestrator driving the full pipeline
// ABOUTME: Uses a scripted fake generator; no provider calls are made

package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/models"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

// scriptedGenerator answers prompts by pattern matching, simulating a
// cooperative provider.
type scriptedGenerator struct {
	calls     int
	overrides map[string]string // prompt substring -> response
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, *llm.Usage, error) {
	g.calls++
	usage := &llm.Usage{PromptTokens: 10, CompletionTokens: 20}

	for marker, response := range g.overrides {
		if strings.Contains(prompt, marker) {
			return response, usage, nil
		}
	}

	switch {
	case strings.Contains(prompt, "continuity assistant"):
		return "Digest of prior material.\nCONTINUE FROM: the last beat", usage, nil
	case strings.Contains(prompt, "one-paragraph premise"):
		return "A lighthouse keeper finds a door beneath the sea.", usage, nil
	case strings.Contains(prompt, "single genre"):
		return "Nautical Fantasy\nSalt-soaked wonder and slow dread.", usage, nil
	case strings.Contains(prompt, "prose style"):
		return "Close third person, past tense, measured pacing.", usage, nil
	case strings.Contains(prompt, "main characters"):
		return "- Mara - the keeper\n- Tomas - the cartographer\n- The Tide - what waits below", usage, nil
	case strings.Contains(prompt, "full synopsis"):
		return "Mara finds the door. She descends. She returns changed.", usage, nil
	case strings.Contains(prompt, "chapter-by-chapter outline"):
		return "Chapter 1: The Door\nMara finds the door at low tide.\n" +
			"Scene 1: Low tide\nThe find.\nScene 2: The key\nThe key turns.\n" +
			"Chapter 2: The Crossing\nMara descends.\nScene 1: Threshold\nShe crosses over.\n", usage, nil
	case strings.Contains(prompt, "Expand chapter 1"):
		return "Chapter 1: The Door\nMara finds the door at low tide.\n" +
			"Scene 1: Low tide\nThe find, in detail.\nScene 2: The key\nThe key turns, in detail.\n", usage, nil
	case strings.Contains(prompt, "Expand chapter 2"):
		return "Chapter 2: The Crossing\nMara descends.\nScene 1: Threshold\nShe crosses over, in detail.\n", usage, nil
	case strings.Contains(prompt, "Expand scene"):
		return "Expanded scene outline: setting, characters, beats.", usage, nil
	case strings.Contains(prompt, "Write the full prose"):
		return "The sea gave up its door reluctantly, plank by plank.", usage, nil
	}
	return "generic output", usage, nil
}

// failingGenerator errors on every call, proving no calls were needed.
type failingGenerator struct{ calls int }

func (g *failingGenerator) Generate(ctx context.Context, prompt string) (string, *llm.Usage, error) {
	g.calls++
	return "", nil, fmt.Errorf("unexpected generator call")
}

func testConfig() *config.Config {
	return &config.Config{
		ChatModel:           "test-model",
		MaxRetries:          0,
		MaxChapters:         20,
		SummaryTTL:          0,
		CompletionThreshold: 0.8,
	}
}

func newProject(t *testing.T, title string) *storage.ProjectStore {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "project"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if title != "" {
		if err := store.SaveMetadata(&storage.Metadata{Title: title, Entries: map[string]storage.MetadataEntry{}}); err != nil {
			t.Fatalf("SaveMetadata() error = %v", err)
		}
	}
	return store
}

func runPipeline(t *testing.T, store *storage.ProjectStore, gen llm.Generator) (*Orchestrator, error) {
	t.Helper()
	svc, err := NewPipelineServices(store, nil)
	if err != nil {
		t.Fatalf("NewPipelineServices() error = %v", err)
	}
	t.Cleanup(svc.Close)
	orch := NewOrchestrator(store, gen, svc, testConfig())
	return orch, orch.Run(context.Background())
}

func TestOrchestrator_FullRun(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	gen := &scriptedGenerator{}

	orch, err := runPipeline(t, store, gen)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !store.IsComplete() {
		t.Error("project should be marked complete")
	}

	book := orch.Book()
	if len(book.Chapters) != 2 {
		t.Fatalf("book has %d chapters, want 2", len(book.Chapters))
	}
	ch1 := book.Chapter(1)
	if ch1 == nil || len(ch1.Scenes) != 2 {
		t.Fatalf("chapter 1 = %+v, want 2 scenes", ch1)
	}
	for _, sc := range ch1.Scenes {
		if sc.Content.IsEmpty() {
			t.Errorf("scene %d has no prose", sc.Outline.Number)
		}
	}
	if ch1.Prose == "" {
		t.Error("chapter prose not assembled")
	}

	// Every text phase is persisted for resume.
	for _, phase := range []models.Phase{models.PhasePremise, models.PhaseGenre, models.PhaseStyle, models.PhaseCast, models.PhaseSynopsis, models.PhaseOutline} {
		if _, ok := store.PhaseResult(phase); !ok {
			t.Errorf("phase %s result not persisted", phase)
		}
	}

	// Artifacts exist under logs/.
	for _, name := range []string{
		"premise.md",
		storage.RawOutlineFile(),
		storage.ChapterOutlineFile(1),
		storage.SceneContentFile(1, 1),
		storage.SceneContentFile(1, 2),
		storage.ChapterContentFile(2),
		storage.ChapterFile(1),
	} {
		if _, err := os.Stat(filepath.Join(store.LogsDir(), name)); err != nil {
			t.Errorf("missing artifact %s", name)
		}
	}

	// outline.json is the fallback source of truth.
	outline, err := store.LoadOutline()
	if err != nil || outline.ChapterCount() != 2 {
		t.Errorf("LoadOutline() = (%v, %v)", outline, err)
	}
}

func TestOrchestrator_CompletedProjectMakesNoCalls(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	if _, err := runPipeline(t, store, &scriptedGenerator{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	gen := &failingGenerator{}
	if _, err := runPipeline(t, store, gen); err != nil {
		t.Fatalf("rerun on complete project error = %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times on a complete project", gen.calls)
	}
}

func TestOrchestrator_ResumesFromArtifactsWithoutCalls(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	if _, err := runPipeline(t, store, &scriptedGenerator{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Simulate a crash after the final write but before the marker.
	if err := os.Remove(filepath.Join(store.Dir(), ".complete")); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	gen := &failingGenerator{}
	if _, err := runPipeline(t, store, gen); err != nil {
		t.Fatalf("resume error = %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("resume regenerated %d calls, want 0 (all work persisted)", gen.calls)
	}
	if !store.IsComplete() {
		t.Error("resume should re-mark the project complete")
	}
}

func TestOrchestrator_ResumeSkipsWrittenScenes(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	first := &scriptedGenerator{}
	if _, err := runPipeline(t, store, first); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Drop the marker and one chapter's assembled content to fall below
	// the completion band, forcing a real resume pass.
	if err := os.Remove(filepath.Join(store.Dir(), ".complete")); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := os.Remove(filepath.Join(store.LogsDir(), storage.ChapterContentFile(1))); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := os.Remove(filepath.Join(store.LogsDir(), storage.ChapterContentFile(2))); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	gen := &failingGenerator{}
	if _, err := runPipeline(t, store, gen); err != nil {
		t.Fatalf("resume error = %v", err)
	}
	// Scene prose survives in scene artifacts and the structured chapter
	// files, so nothing needed regeneration.
	if gen.calls != 0 {
		t.Errorf("resume made %d generator calls, want 0", gen.calls)
	}
	if _, err := os.Stat(filepath.Join(store.LogsDir(), storage.ChapterContentFile(1))); err != nil {
		t.Error("chapter content artifact not rebuilt on resume")
	}
}

func TestOrchestrator_DuplicateChapterTitleFatal(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	gen := &scriptedGenerator{overrides: map[string]string{
		// Both chapter expansions return an identical marker line, so
		// both chapters would share a title.
		"Expand chapter 1": "CHAPTER of Mirrors\nFirst body.\n",
		"Expand chapter 2": "CHAPTER of Mirrors\nSecond body.\n",
	}}

	_, err := runPipeline(t, store, gen)
	if !errors.Is(err, models.ErrDuplicateChapterTitle) {
		t.Fatalf("Run() error = %v, want ErrDuplicateChapterTitle", err)
	}
	if store.IsComplete() {
		t.Error("failed run must not mark the project complete")
	}
}

func TestOrchestrator_EmptyOutlineFatal(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	gen := &scriptedGenerator{overrides: map[string]string{
		"chapter-by-chapter outline": "   \n  ",
	}}

	_, err := runPipeline(t, store, gen)
	if !errors.Is(err, models.ErrGeneration) {
		t.Fatalf("Run() error = %v, want ErrGeneration", err)
	}
}

func TestOrchestrator_MissingTitleIsMissingContext(t *testing.T) {
	store := newProject(t, "")
	_, err := runPipeline(t, store, &scriptedGenerator{})
	if !errors.Is(err, models.ErrMissingContext) {
		t.Fatalf("Run() error = %v, want ErrMissingContext", err)
	}
}

func TestOrchestrator_ChapterWithoutScenesIsSkipped(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	gen := &scriptedGenerator{overrides: map[string]string{
		// Chapter 2 never gets scenes, from the outline or its expansion.
		"chapter-by-chapter outline": "Chapter 1: The Door\nMara finds the door.\n" +
			"Scene 1: Low tide\nThe find.\n" +
			"Chapter 2: The Crossing\nOnly a description.\n",
		"Expand chapter 2": "Chapter 2: The Crossing\nOnly a description.\n",
	}}

	orch, err := runPipeline(t, store, gen)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !store.IsComplete() {
		t.Error("scene-less chapters must not block completion")
	}
	ch2 := orch.Book().Chapter(2)
	if ch2 == nil {
		t.Fatal("chapter 2 missing")
	}
	if len(ch2.Scenes) != 0 || ch2.Prose != "" {
		t.Errorf("chapter 2 = %d scenes, prose %q; want skipped", len(ch2.Scenes), ch2.Prose)
	}
}

func TestOrchestrator_SeededPremiseIsReused(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	if err := store.SetPhaseResult(models.PhasePremise, "A hand-written premise."); err != nil {
		t.Fatalf("SetPhaseResult() error = %v", err)
	}

	gen := &scriptedGenerator{}
	orch, err := runPipeline(t, store, gen)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, _ := store.PhaseResult(models.PhasePremise); got != "A hand-written premise." {
		t.Errorf("premise overwritten: %q", got)
	}
	_ = orch
}

func TestSplitSummary(t *testing.T) {
	summary, cue := splitSummary("The story so far.\nCONTINUE FROM: the dock at dusk")
	if summary != "The story so far." {
		t.Errorf("summary = %q", summary)
	}
	if cue != "the dock at dusk" {
		t.Errorf("continuation = %q", cue)
	}

	summary, cue = splitSummary("No cue line here.")
	if summary != "No cue line here." || cue != "" {
		t.Errorf("splitSummary without marker = (%q, %q)", summary, cue)
	}
}

func TestParseCast(t *testing.T) {
	got := parseCast("- Mara - the keeper\n\n* Tomas - the cartographer\nThe Tide\n")
	want := []string{"Mara - the keeper", "Tomas - the cartographer", "The Tide"}
	if len(got) != len(want) {
		t.Fatalf("parseCast() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cast[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseGenre(t *testing.T) {
	g := parseGenre("Genre: Nautical Fantasy\nSalt and dread.")
	if g.Name != "Nautical Fantasy" {
		t.Errorf("Name = %q", g.Name)
	}
	if g.Description != "Salt and dread." {
		t.Errorf("Description = %q", g.Description)
	}
}

func TestContinuationCue_Bounded(t *testing.T) {
	long := strings.Repeat("abcde ", 200) // 1200 chars
	cue := continuationCue(long)
	if len([]rune(cue)) != 500 {
		t.Errorf("cue length = %d, want 500", len([]rune(cue)))
	}
	if !strings.HasSuffix(strings.TrimSpace(long), cue) {
		t.Error("cue must be the tail of the text")
	}
}

func TestTokenUsageTracker(t *testing.T) {
	tr := NewTokenUsageTracker()
	tr.Add(&llm.Usage{PromptTokens: 5, CompletionTokens: 7})
	tr.Add(nil)
	tr.Add(&llm.Usage{PromptTokens: 3, CompletionTokens: 1})
	prompt, completion := tr.Totals()
	if prompt != 8 || completion != 8 {
		t.Errorf("Totals() = (%d, %d), want (8, 8)", prompt, completion)
	}
}

func TestOrchestrator_RecordsLedgerUsage(t *testing.T) {
	store := newProject(t, "The Glass Harbor")
	if _, err := runPipeline(t, store, &scriptedGenerator{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ledger, err := storage.OpenLedger(store.Dir())
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	defer func() { _ = ledger.Close() }()

	totals, err := ledger.PhaseTotals()
	if err != nil {
		t.Fatalf("PhaseTotals() error = %v", err)
	}
	if len(totals) == 0 {
		t.Fatal("no ledger rows recorded for a full run")
	}
	seen := map[string]bool{}
	for _, u := range totals {
		seen[u.Phase] = true
		if u.Calls <= 0 {
			t.Errorf("phase %s has %d calls", u.Phase, u.Calls)
		}
	}
	for _, phase := range []string{"premise", "outline", "prose", "summary"} {
		if !seen[phase] {
			t.Errorf("phase %s missing from ledger", phase)
		}
	}
}
