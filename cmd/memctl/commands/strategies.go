// ABOUTME: CLI command to review learned teaching strategies
// ABOUTME: Shows success scores and usage counts per student and topic
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	strategiesOwner    string
	strategiesTopic    string
	strategiesMinScore float64
	strategiesLimit    int
)

// NewStrategiesCmd creates the strategies command
func NewStrategiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "Show learned teaching strategies",
		Long: `Show which teaching approaches have worked for a student,
best score first.

Examples:
  memctl strategies --owner student-1
  memctl strategies --owner student-1 --topic fractions
  memctl strategies --owner student-1 --min-score 0.6 --format json`,
		RunE: runStrategies,
	}

	cmd.Flags().StringVar(&strategiesOwner, "owner", "", "Student to show strategies for (required)")
	cmd.Flags().StringVar(&strategiesTopic, "topic", "", "Filter by topic substring")
	cmd.Flags().Float64Var(&strategiesMinScore, "min-score", 0.0, "Hide strategies below this score")
	cmd.Flags().IntVar(&strategiesLimit, "limit", 25, "Maximum rows to show")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runStrategies(cmd *cobra.Command, args []string) error {
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

	strategies, err := st.GetStrategies(ctx, strategiesOwner, strategiesTopic, strategiesMinScore, strategiesLimit)
	if err != nil {
		return fmt.Errorf("listing strategies: %w", err)
	}

	if len(strategies) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No strategies found\n")
		}
		return nil
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(strategies, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TOPIC\tSTRATEGY\tSCORE\tUSED\tOUTCOME\tLAST USED\n")
	fmt.Fprintf(w, "-----\t--------\t-----\t----\t-------\t---------\n")
	for _, s := range strategies {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\t%s\n",
			truncate(s.Topic, 30),
			truncate(s.StrategyUsed, 35),
			s.SuccessScore,
			s.TimesUsed,
			s.Outcome,
			formatTime(s.LastUsedAt))
	}
	_ = w.Flush()
	return nil
}
