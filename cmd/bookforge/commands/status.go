// ABOUTME: CLI command to inspect project state without generating
// ABOUTME: Reuses the artifact scanner so status matches what resume would see
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [title]",
		Short: "Show project status",
		Long: `Show the reconstructed state of a book project, or list all
projects when called without a title.

Examples:
  bookforge status
  bookforge status "The Glass Harbor"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatus,
	}
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if len(args) == 0 {
		return listProjects(cmd, cfg)
	}
	return showProject(cmd, cfg, args[0])
}

func listProjects(cmd *cobra.Command, cfg *config.Config) error {
	entries, err := os.ReadDir(cfg.ProjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "No projects yet.")
			return nil
		}
		return fmt.Errorf("reading projects directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(cfg.ProjectsDir, entry.Name())
		store, err := storage.Open(dir)
		if err != nil {
			continue
		}
		meta, err := store.LoadMetadata()
		title := entry.Name()
		if err == nil && meta.Title != "" {
			title = meta.Title
		}
		state := "in progress"
		if store.IsComplete() {
			state = "complete"
		}
		line := fmt.Sprintf("  %-40s %s", truncate(title, 40), state)
		if info, err := entry.Info(); err == nil {
			line += fmt.Sprintf("  (%s)", formatTime(info.ModTime()))
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		count++
	}
	if count == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No projects yet.")
	}
	return nil
}

func showProject(cmd *cobra.Command, cfg *config.Config, title string) error {
	dir := projectDir(cfg, title)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no project at %s", dir)
	}

	scanner := storage.NewScanner(cfg.CompletionThreshold)
	state, err := scanner.Scan(dir)
	if err != nil {
		return fmt.Errorf("scanning project: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project: %s\n", dir)
	if state.Complete {
		fmt.Fprintln(out, "Status:  complete")
	} else {
		fmt.Fprintln(out, "Status:  in progress")
	}
	if state.Outline != nil {
		fmt.Fprintf(out, "Outline: %d chapters\n", state.Outline.ChapterCount())
	} else {
		fmt.Fprintln(out, "Outline: not yet generated")
	}

	numbers := make([]int, 0, len(state.Chapters))
	for n := range state.Chapters {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		ch := state.Chapters[n]
		scenesDone := 0
		for _, sc := range ch.Scenes {
			if sc.HasContent {
				scenesDone++
			}
		}
		fmt.Fprintf(out, "  chapter %2d  outline=%-5t content=%-5t scenes %d/%d written\n",
			n, ch.HasOutline, ch.HasContent, scenesDone, len(ch.Scenes))
	}
	return nil
}
