// ABOUTME: CLI command to run or resume the generation pipeline
// ABOUTME: Only entry point that pays for generator calls
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/core"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [title]",
		Short: "Run or resume book generation",
		Long: `Run the full generation pipeline for a project. Existing phase
results, outline, and scene artifacts are reused, so running this on a
partially generated project resumes where the previous run stopped.

Examples:
  bookforge generate "The Glass Harbor"`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerate,
	}
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := projectDir(cfg, args[0])
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no project at %s, run 'bookforge new' first", dir)
	}
	store, err := storage.Open(dir)
	if err != nil {
		return fmt.Errorf("opening project: %w", err)
	}

	client, monitor, err := llm.NewMonitoredClient(cfg)
	if err != nil {
		return fmt.Errorf("initializing generator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	monitor.Start(ctx)

	svc, err := core.NewPipelineServices(store, monitor)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}
	defer svc.Close()

	orch := core.NewOrchestrator(store, client, svc, cfg)
	if err := orch.Run(ctx); err != nil {
		return err
	}

	if !quiet {
		prompt, completion := svc.Usage.Totals()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Generation complete (%d prompt + %d completion tokens this run)\n",
			prompt, completion)
		fmt.Fprintf(cmd.OutOrStdout(), "  Project: %s\n", dir)
	}
	return nil
}
