// ABOUTME: CLI command to report per-phase token usage from the call ledger
// ABOUTME: Reads the project's sqlite ledger; no generator calls are made
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

// NewUsageCmd creates the usage command
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage [title]",
		Short: "Show per-phase token usage for a project",
		Long: `Report generator call counts and token totals per pipeline phase,
read from the project's call ledger.

Examples:
  bookforge usage "The Glass Harbor"`,
		Args: cobra.ExactArgs(1),
		RunE: runUsage,
	}
	return cmd
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dir := projectDir(cfg, args[0])
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no project at %s", dir)
	}

	ledger, err := storage.OpenLedger(dir)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer func() { _ = ledger.Close() }()

	totals, err := ledger.PhaseTotals()
	if err != nil {
		return fmt.Errorf("reading usage: %w", err)
	}
	if len(totals) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No generator calls recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %8s %14s %18s\n", "PHASE", "CALLS", "PROMPT TOKENS", "COMPLETION TOKENS")
	var calls, prompt, completion int
	for _, t := range totals {
		fmt.Fprintf(out, "%-16s %8d %14d %18d\n", t.Phase, t.Calls, t.PromptTokens, t.CompletionTokens)
		calls += t.Calls
		prompt += t.PromptTokens
		completion += t.CompletionTokens
	}
	fmt.Fprintf(out, "%-16s %8d %14d %18d\n", "total", calls, prompt, completion)
	return nil
}
