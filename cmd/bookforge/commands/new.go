// ABOUTME: CLI command to create a new book project
// ABOUTME: Seeds the project directory with a title and optional premise
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/models"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

var (
	newPremise     string
	newPremiseFile string
)

// NewNewCmd creates the new command
func NewNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a new book project",
		Long: `Create a new book project directory.

Examples:
  bookforge new "The Glass Harbor"
  bookforge new "The Glass Harbor" --premise "A lighthouse keeper finds a door under the sea"
  bookforge new "The Glass Harbor" --premise-file premise.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runNew,
	}

	cmd.Flags().StringVar(&newPremise, "premise", "", "Seed the premise phase with this text")
	cmd.Flags().StringVar(&newPremiseFile, "premise-file", "", "Seed the premise phase from a file")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	title := strings.TrimSpace(args[0])
	if title == "" {
		return fmt.Errorf("title must not be empty")
	}

	premise := newPremise
	if newPremiseFile != "" {
		data, err := os.ReadFile(newPremiseFile)
		if err != nil {
			return fmt.Errorf("reading premise file: %w", err)
		}
		premise = string(data)
	}

	dir := projectDir(cfg, title)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("project already exists at %s", dir)
	}

	store, err := storage.Open(dir)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	meta := &storage.Metadata{Title: title, Entries: map[string]storage.MetadataEntry{}}
	if err := store.SaveMetadata(meta); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}
	if strings.TrimSpace(premise) != "" {
		if err := store.SetPhaseResult(models.PhasePremise, strings.TrimSpace(premise)); err != nil {
			return fmt.Errorf("seeding premise: %w", err)
		}
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project %q at %s\n", title, dir)
	}
	return nil
}
