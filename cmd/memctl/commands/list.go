// ABOUTME: CLI command to list a student's memories
// ABOUTME: Table or JSON output, optionally including forgotten records
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

var (
	listOwner         string
	listKind          string
	listCategory      string
	listHideForgotten bool
	listLimit         int
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a student's memories",
		Long: `List memories for one student, newest first.

Forgotten memories are listed too (they are hidden from retrieval,
not from this audit view); pass --hide-forgotten to drop them.

Examples:
  memctl list --owner student-1
  memctl list --owner student-1 --kind relational_note
  memctl list --owner student-1 --category struggle --format json`,
		RunE: runList,
	}

	cmd.Flags().StringVar(&listOwner, "owner", "", "Student to list memories for (required)")
	cmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind: user_fact or relational_note")
	cmd.Flags().StringVar(&listCategory, "category", "", "Filter by category")
	cmd.Flags().BoolVar(&listHideForgotten, "hide-forgotten", false, "Hide forgotten memories")
	cmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum rows to show")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
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

	records, err := st.ListByOwner(ctx, listOwner, store.ListFilters{
		Kind:             models.MemoryKind(listKind),
		Category:         listCategory,
		ExcludeForgotten: listHideForgotten,
		Limit:            listLimit,
	})
	if err != nil {
		return fmt.Errorf("listing memories: %w", err)
	}

	if len(records) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No memories found\n")
		}
		return nil
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SUMMARY\tKIND\tCATEGORY\tIMPORTANCE\tCITED\tCREATED\tID\n")
	fmt.Fprintf(w, "-------\t----\t--------\t----------\t-----\t-------\t--\n")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
			truncate(rec.Summary, 40),
			rec.Kind,
			rec.Category,
			rec.CurrentImportance,
			rec.TimesCited,
			formatTime(rec.CreatedAt),
			truncate(rec.ID, 25))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d memories\n", len(records))
	}
	return nil
}
