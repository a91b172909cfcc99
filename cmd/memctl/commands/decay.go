// ABOUTME: CLI command to run an importance decay pass over the store
// ABOUTME: Supports a dry run that reports without writing
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrbrandonmills/professor-carl-memory/internal/decay"
)

var decayDryRun bool

// NewDecayCmd creates the decay command
func NewDecayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Run an importance decay pass",
		Long: `Walk the whole store and decay each memory's importance by
time since it was last created or cited.

Examples:
  memctl decay --dry-run
  memctl decay`,
		RunE: runDecay,
	}

	cmd.Flags().BoolVar(&decayDryRun, "dry-run", false, "Report what would change without writing")

	return cmd
}

func runDecay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	job := decay.NewJob(st, cfg, logger)
	summary, err := job.Run(ctx, decayDryRun)
	if err != nil {
		return fmt.Errorf("running decay pass: %w", err)
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	label := "decayed"
	if summary.DryRun {
		label = "would decay"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Decay pass: %s %d memories in %d batches (%s)\n",
		label, summary.Touched, summary.Batches, summary.Elapsed.Round(0))
	return nil
}
