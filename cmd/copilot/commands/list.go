// ABOUTME: CLI command to list health records
// ABOUTME: Shows every ingested document with type and chunk count
package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/health-copilot/internal/models"
)

var (
	listType string
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List health records",
		Long: `List every document in the knowledge base, newest first.

Examples:
  copilot list
  copilot list --type lab_result
  copilot list --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().StringVar(&listType, "type", "", "Only show documents of this type")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	if listType != "" && !models.DocumentType(listType).IsKnown() {
		return fmt.Errorf("unknown document type %q", listType)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	docs, err := a.Engine.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	filtered := make([]models.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		if listType == "" || string(doc.Type) == listType {
			filtered = append(filtered, doc)
		}
	}

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), filtered)
	}

	if len(filtered) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No records yet. Add one with 'copilot ingest'.")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tTYPE\tCHUNKS\tADDED\n")
	fmt.Fprintf(w, "--\t-----\t----\t------\t-----\n")
	for _, doc := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			truncate(doc.ID, 36),
			truncate(doc.Title, 30),
			doc.Type,
			doc.ChunkCount,
			formatTime(doc.CreatedAt))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d document(s)\n", len(filtered))
		st, err := a.Store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("counting knowledge base: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Knowledge base: %d document(s), %d chunk(s), %d embedding(s)\n",
			st.Documents, st.Chunks, st.Embeddings)
	}
	return nil
}
