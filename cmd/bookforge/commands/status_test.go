// ABOUTME: Tests for the status command
// ABOUTME: Verifies project listing and single-project reporting

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

func runStatusCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewStatusCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusCommand_NoProjects(t *testing.T) {
	t.Setenv("BOOKFORGE_PROJECTS_DIR", t.TempDir())
	out, err := runStatusCmd(t)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "No projects yet.") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusCommand_ListsProjects(t *testing.T) {
	projects := t.TempDir()
	t.Setenv("BOOKFORGE_PROJECTS_DIR", projects)

	cfg := &config.Config{ProjectsDir: projects}
	store, err := storage.Open(projectDir(cfg, "The Glass Harbor"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.SaveMetadata(&storage.Metadata{Title: "The Glass Harbor", Entries: map[string]storage.MetadataEntry{}}); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if err := store.MarkComplete(); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}

	out, err := runStatusCmd(t)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "The Glass Harbor") || !strings.Contains(out, "complete") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusCommand_SingleProject(t *testing.T) {
	projects := t.TempDir()
	t.Setenv("BOOKFORGE_PROJECTS_DIR", projects)

	cfg := &config.Config{ProjectsDir: projects}
	if _, err := storage.Open(projectDir(cfg, "Fresh Book")); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	out, err := runStatusCmd(t, "Fresh Book")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "in progress") || !strings.Contains(out, "not yet generated") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusCommand_UnknownProject(t *testing.T) {
	t.Setenv("BOOKFORGE_PROJECTS_DIR", t.TempDir())
	if _, err := runStatusCmd(t, "No Such Book"); err == nil {
		t.Error("status of a missing project should fail")
	}
}
