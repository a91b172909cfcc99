// ABOUTME: CLI command for semantic memory search
// ABOUTME: Embeds the query via OpenAI and ranks by cosine similarity
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrbrandonmills/professor-carl-memory/internal/llm"
)

var (
	searchOwner string
	searchLimit int
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a student's memories semantically",
		Long: `Search memories by meaning rather than keywords.

Requires OPENAI_API_KEY for query embedding.

Examples:
  memctl search --owner student-1 "what does she want to study"
  memctl search --owner student-1 --limit 3 "math anxiety"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringVar(&searchOwner, "owner", "", "Student to search memories for (required)")
	cmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := llm.NewOpenAIClient(cfg)
	if err != nil {
		return fmt.Errorf("creating OpenAI client: %w", err)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	embedding, err := client.GenerateEmbedding(ctx, query)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	matches, err := st.TopKBySimilarity(ctx, searchOwner, embedding, searchLimit, cfg.DecayFloor)
	if err != nil {
		return fmt.Errorf("searching memories: %w", err)
	}

	if len(matches) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No matches found\n")
		}
		return nil
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SIMILARITY\tSUMMARY\tCATEGORY\tID\n")
	fmt.Fprintf(w, "----------\t-------\t--------\t--\n")
	for _, m := range matches {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			m.Similarity,
			truncate(m.Record.Summary, 50),
			m.Record.Category,
			truncate(m.Record.ID, 25))
	}
	_ = w.Flush()
	return nil
}
