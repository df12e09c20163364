// ABOUTME: CLI command to add health records to the knowledge base
// ABOUTME: Accepts text, a file (PDF or text), or stdin
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/health-copilot/internal/core"
	"github.com/harper/health-copilot/internal/extract"
	"github.com/harper/health-copilot/internal/models"
	"github.com/harper/health-copilot/internal/watch"
)

var (
	ingestFile   string
	ingestID     string
	ingestTitle  string
	ingestType   string
	ingestSource string
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Add a health record",
		Long: `Add a health record from text, a file, or stdin.

Files keep a stable ID derived from their path, so ingesting the same
file again replaces the earlier version. PDFs are converted to text.

Examples:
  copilot ingest --file labs-2024-03.pdf
  copilot ingest --title "Allergy list" --type medical_record "Allergic to penicillin"
  cat visit.txt | copilot ingest --title "Visit note" --type note`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestFile, "file", "", "Read the record from a file")
	cmd.Flags().StringVar(&ingestID, "id", "", "Document ID (default: derived from --file, otherwise random)")
	cmd.Flags().StringVar(&ingestTitle, "title", "", "Document title (default: file name)")
	cmd.Flags().StringVar(&ingestType, "type", "", "Document type (default: guessed from file name, else medical_record)")
	cmd.Flags().StringVar(&ingestSource, "source", "", "Source file name shown in citations")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	doc, err := buildIngestDocument(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.Engine.Ingest(context.Background(), doc)
	if err != nil {
		var ingestErr *core.IngestionError
		if errors.As(err, &ingestErr) && !errors.Is(err, core.ErrInvalidDocument) {
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return errors.New(ingestErr.UserMessage())
		}
		return err
	}

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"document_id":    doc.ID,
			"success":        result.Success,
			"chunks_created": result.ChunksCreated,
		})
	}
	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Ingested %s (%s) into %d chunk(s)\n", doc.Title, doc.ID, result.ChunksCreated)
	}
	return nil
}

// buildIngestDocument assembles the document from flags, args and stdin
func buildIngestDocument(stdin io.Reader, args []string) (*models.Document, error) {
	doc := &models.Document{
		ID:         ingestID,
		Title:      ingestTitle,
		Type:       models.DocumentType(ingestType),
		SourceFile: ingestSource,
	}

	switch {
	case ingestFile != "":
		text, err := extract.ReadDocumentFile(ingestFile)
		if err != nil {
			return nil, err
		}
		doc.Content = text
		if doc.ID == "" {
			doc.ID = watch.DocumentID(ingestFile)
		}
		if doc.Title == "" {
			doc.Title = extract.TitleFromPath(ingestFile)
		}
		if doc.Type == "" {
			doc.Type = extract.GuessDocumentType(ingestFile)
		}
		if doc.SourceFile == "" {
			doc.SourceFile = filepath.Base(ingestFile)
		}
	case len(args) > 0:
		doc.Content = args[0]
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		doc.Content = string(data)
	}

	doc.Content = strings.TrimSpace(doc.Content)
	if doc.Content == "" {
		return nil, fmt.Errorf("no text provided")
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Type == "" {
		doc.Type = models.DocumentTypeMedicalRecord
	}
	if !doc.Type.IsKnown() {
		return nil, fmt.Errorf("unknown document type %q", doc.Type)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("--title is required when not ingesting a file")
	}

	return doc, nil
}
