// ABOUTME: Tests for the project store persistence layer
// ABOUTME: Verifies metadata mirroring, phase results, outline, and the marker

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AuthorWorks/bookforge/internal/models"
)

func newTestStore(t *testing.T) *ProjectStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "project"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestOpen_CreatesLayout(t *testing.T) {
	store := newTestStore(t)
	for _, dir := range []string{store.Dir(), store.LogsDir(), store.CacheDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}

func TestProjectStore_PhaseResults(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.PhaseResult(models.PhasePremise); ok {
		t.Error("fresh project should have no premise result")
	}

	if err := store.SetPhaseResult(models.PhasePremise, "a premise"); err != nil {
		t.Fatalf("SetPhaseResult() error = %v", err)
	}
	got, ok := store.PhaseResult(models.PhasePremise)
	if !ok || got != "a premise" {
		t.Errorf("PhaseResult() = (%q, %v), want (\"a premise\", true)", got, ok)
	}

	// Reopen and read back: results must survive a process restart.
	reopened, err := Open(store.Dir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, ok = reopened.PhaseResult(models.PhasePremise)
	if !ok || got != "a premise" {
		t.Errorf("reopened PhaseResult() = (%q, %v)", got, ok)
	}
}

func TestProjectStore_MetadataMirror(t *testing.T) {
	store := newTestStore(t)
	meta := &Metadata{Title: "The Glass Harbor", Entries: map[string]MetadataEntry{}}
	if err := store.SaveMetadata(meta); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if err := store.SetPhaseResult(models.PhaseGenre, "Nautical fantasy"); err != nil {
		t.Fatalf("SetPhaseResult() error = %v", err)
	}

	// Both the machine mirror and the human-readable file exist.
	if _, err := os.Stat(filepath.Join(store.Dir(), "metadata.json")); err != nil {
		t.Error("metadata.json missing")
	}
	md, err := os.ReadFile(filepath.Join(store.Dir(), "metadata.md"))
	if err != nil {
		t.Fatal("metadata.md missing")
	}
	if !strings.Contains(string(md), "The Glass Harbor") || !strings.Contains(string(md), "Nautical fantasy") {
		t.Error("metadata.md should mirror title and phase results")
	}
}

func TestProjectStore_LoadMetadata_FallsBackToMD(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveMetadata(&Metadata{Title: "Fallback Book", Entries: map[string]MetadataEntry{
		"premise": {Text: "a premise"},
	}}); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}

	// Corrupt the JSON mirror; the markdown copy still loads.
	if err := os.WriteFile(filepath.Join(store.Dir(), "metadata.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	meta, err := store.LoadMetadata()
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta.Title != "Fallback Book" {
		t.Errorf("Title = %q, want recovered from metadata.md", meta.Title)
	}
	if entry, ok := meta.Entries["premise"]; !ok || !strings.Contains(entry.Text, "a premise") {
		t.Error("premise entry not recovered from metadata.md")
	}
}

func TestProjectStore_OutlineRoundTrip(t *testing.T) {
	store := newTestStore(t)
	o := &models.Outline{Chapters: []models.ChapterOutline{
		{Number: 1, Title: "One", Scenes: []models.SceneOutline{{Number: 1, Title: "s"}}},
	}}
	if err := store.SaveOutline(o); err != nil {
		t.Fatalf("SaveOutline() error = %v", err)
	}
	got, err := store.LoadOutline()
	if err != nil {
		t.Fatalf("LoadOutline() error = %v", err)
	}
	if got.ChapterCount() != 1 || got.Chapters[0].Title != "One" {
		t.Errorf("LoadOutline() = %+v", got)
	}
}

func TestProjectStore_LoadOutline_CorruptIsSerializationError(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(filepath.Join(store.Dir(), "outline.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err := store.LoadOutline()
	if !errors.Is(err, models.ErrSerialization) {
		t.Errorf("LoadOutline() error = %v, want ErrSerialization", err)
	}
}

func TestProjectStore_CompleteMarker(t *testing.T) {
	store := newTestStore(t)
	if store.IsComplete() {
		t.Error("fresh project should not be complete")
	}
	if err := store.MarkComplete(); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if !store.IsComplete() {
		t.Error("marker written but IsComplete() = false")
	}
}

func TestProjectStore_Artifacts(t *testing.T) {
	store := newTestStore(t)
	if err := store.WriteArtifact("premise.md", "the premise text"); err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}
	got, err := store.ReadArtifact("premise.md")
	if err != nil {
		t.Fatalf("ReadArtifact() error = %v", err)
	}
	if got != "the premise text" {
		t.Errorf("ReadArtifact() = %q", got)
	}

	// No stray .tmp files survive the atomic write.
	entries, err := os.ReadDir(store.LogsDir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
