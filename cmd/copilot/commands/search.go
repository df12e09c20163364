// ABOUTME: CLI command to search health records
// ABOUTME: Prints ranked passages with relevance scores and citations
package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit     int
	searchThreshold float64
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search health records",
		Long: `Search health records by meaning rather than exact words.

Returns the best matching passages whose relevance score is at least
the threshold, best first.

Examples:
  copilot search "cholesterol trend"
  copilot search --limit 10 --threshold 0.5 "allergies"
  copilot search --format json "blood pressure"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results to return (default: from config)")
	cmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Minimum relevance score, -1 to 1 (default: from config)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchLimit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", searchLimit)
	}
	thresholdSet := cmd.Flags().Changed("threshold")
	if thresholdSet {
		if err := validateThreshold(searchThreshold, "threshold"); err != nil {
			return err
		}
	}

	query := args[0]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	threshold := a.Engine.SearchThreshold()
	if thresholdSet {
		threshold = searchThreshold
	}
	results := a.Engine.Search(context.Background(), query, searchLimit, threshold)

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), results)
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No records found for query: %s\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tSOURCE\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t------\t-------\n")
	for _, result := range results {
		fmt.Fprintf(w, "%.3f\t%s\t%s\n",
			result.RelevanceScore,
			truncate(result.Citation, 40),
			truncate(oneLine(result.ChunkText), 60))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
	}

	return nil
}
