// ABOUTME: CLI command to delete a health record
// ABOUTME: Removes the document with all of its chunks and embeddings
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a health record",
		Long: `Delete a document together with its chunks and embeddings.

Example:
  copilot delete 3f1c9a2e-7b4d-5e8f-9a0b-1c2d3e4f5a6b`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	deleted, err := a.Engine.DeleteDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if !deleted {
		return fmt.Errorf("document %s not found", args[0])
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
	}
	return nil
}
