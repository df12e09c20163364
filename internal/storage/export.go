// ABOUTME: Export functionality for the knowledge base
// ABOUTME: Supports YAML, JSON, and Markdown export formats for any backend
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/health-copilot/internal/models"
	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatYAML     = "yaml"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Exporter is the read surface an export needs
type Exporter interface {
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)
	GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error)
}

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string           `yaml:"version" json:"version"`
	ExportedAt string           `yaml:"exported_at" json:"exported_at"`
	Tool       string           `yaml:"tool" json:"tool"`
	Documents  []ExportDocument `yaml:"documents" json:"documents"`
}

// ExportDocument represents a document with its chunks for export
type ExportDocument struct {
	ID         string        `yaml:"id" json:"id"`
	Title      string        `yaml:"title" json:"title"`
	Type       string        `yaml:"type" json:"type"`
	SourceFile string        `yaml:"source_file,omitempty" json:"source_file,omitempty"`
	CreatedAt  string        `yaml:"created_at" json:"created_at"`
	Chunks     []ExportChunk `yaml:"chunks" json:"chunks"`
}

// ExportChunk represents a chunk for export
type ExportChunk struct {
	ChunkID string `yaml:"chunk_id" json:"chunk_id"`
	Index   int    `yaml:"index" json:"index"`
	Content string `yaml:"content" json:"content"`
}

// Export gathers every document and its chunks in ordinal order
func Export(ctx context.Context, store Exporter) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "health-copilot",
		Documents:  []ExportDocument{},
	}

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		chunks, err := store.GetChunks(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get chunks for %s: %w", doc.ID, err)
		}

		exportDoc := ExportDocument{
			ID:         doc.ID,
			Title:      doc.Title,
			Type:       string(doc.Type),
			SourceFile: doc.SourceFile,
			CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
			Chunks:     make([]ExportChunk, 0, len(chunks)),
		}
		for _, c := range chunks {
			exportDoc.Chunks = append(exportDoc.Chunks, ExportChunk{
				ChunkID: c.ChunkID,
				Index:   c.Index,
				Content: c.Content,
			})
		}

		data.Documents = append(data.Documents, exportDoc)
	}

	return data, nil
}

// Write encodes data to w in the given format
func Write(w io.Writer, data *ExportData, format string) error {
	switch format {
	case FormatYAML, "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatMarkdown, "md":
		return writeMarkdown(w, data)
	default:
		return fmt.Errorf("unsupported export format %q (use yaml, json, or markdown)", format)
	}
}

// ExportToFile exports store to outputPath in the given format
func ExportToFile(ctx context.Context, store Exporter, format, outputPath string) error {
	data, err := Export(ctx, store)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Write(file, data, format)
}

func writeMarkdown(w io.Writer, data *ExportData) error {
	_, _ = fmt.Fprintf(w, "# Health Records Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if len(data.Documents) == 0 {
		_, err := fmt.Fprintln(w, "_No documents._")
		return err
	}

	_, _ = fmt.Fprintln(w, "| ID | Title | Type | Sections |")
	_, _ = fmt.Fprintln(w, "|----|-------|------|----------|")
	for _, doc := range data.Documents {
		_, _ = fmt.Fprintf(w, "| %s | %s | %s | %d |\n", doc.ID, doc.Title, doc.Type, len(doc.Chunks))
	}
	_, _ = fmt.Fprintln(w)

	for _, doc := range data.Documents {
		_, _ = fmt.Fprintf(w, "## %s\n\n", doc.Title)
		if doc.SourceFile != "" {
			_, _ = fmt.Fprintf(w, "*%s, from %s*\n\n", doc.Type, doc.SourceFile)
		} else {
			_, _ = fmt.Fprintf(w, "*%s*\n\n", doc.Type)
		}
		for _, c := range doc.Chunks {
			_, _ = fmt.Fprintf(w, "### Section %d\n\n%s\n\n", c.Index+1, c.Content)
		}
		if _, err := fmt.Fprintln(w, "---"); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}

	return nil
}
