// ABOUTME: CLI command to export the knowledge base
// ABOUTME: Writes YAML, JSON, or Markdown to a file or stdout
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/health-copilot/internal/storage"
)

var (
	exportFormat string
	exportOutput string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all health records",
		Long: `Export every document and its chunks.

Formats (--as): yaml (default), json, markdown.

Examples:
  copilot export > records.yaml
  copilot export --as markdown --output records.md`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVar(&exportFormat, "as", storage.FormatYAML, "Export format (yaml, json, markdown)")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()

	if exportOutput != "" {
		if err := storage.ExportToFile(ctx, a.Store, exportFormat, exportOutput); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported to %s\n", exportOutput)
		}
		return nil
	}

	data, err := storage.Export(ctx, a.Store)
	if err != nil {
		return err
	}
	return storage.Write(cmd.OutOrStdout(), data, exportFormat)
}
