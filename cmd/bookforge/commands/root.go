// ABOUTME: Root Cobra command for the bookforge CLI
// ABOUTME: Wires subcommands and the shared quiet/verbose flags
package commands

import (
	"github.com/spf13/cobra"
)

var (
	quiet   bool
	verbose bool
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookforge",
		Short: "Resumable long-form book generation",
		Long: `Bookforge drives an LLM through a fixed pipeline of phases
(premise, genre, style, cast, synopsis, outline, chapters, scenes, prose)
to produce a complete book. Every intermediate result is persisted, so an
interrupted run resumes from the project directory alone.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(
		NewNewCmd(),
		NewGenerateCmd(),
		NewStatusCmd(),
		NewUsageCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
