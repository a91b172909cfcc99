// ABOUTME: Root command and global flags for the memctl CLI
// ABOUTME: Inspect and maintain the learner memory store from the terminal
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memctl",
		Short: "Inspect and maintain the learner memory store",
		Long: `memctl - learner memory engine CLI

Inspect what the tutor remembers about each student, review which
teaching strategies are working, and run maintenance jobs.

Examples:
  memctl list --owner student-1
  memctl search --owner student-1 "marine biology"
  memctl strategies --owner student-1 --topic fractions
  memctl decay --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStrategiesCmd())
	cmd.AddCommand(NewDecayCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}
