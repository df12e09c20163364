// ABOUTME: Document represents a unit of ingested health text
// ABOUTME: Immutable once chunked; deleting a document removes its chunks
package models

import (
	"errors"
	"strings"
	"time"
)

// DocumentType classifies the source of a document
type DocumentType string

const (
	DocumentTypeMedicalRecord   DocumentType = "medical_record"
	DocumentTypeLabResult       DocumentType = "lab_result"
	DocumentTypePrescription    DocumentType = "prescription"
	DocumentTypeImagingReport   DocumentType = "imaging_report"
	DocumentTypeNote            DocumentType = "note"
	DocumentTypeWearableSummary DocumentType = "wearable_summary"
)

// KnownDocumentTypes lists the document types the application creates itself
var KnownDocumentTypes = []DocumentType{
	DocumentTypeMedicalRecord,
	DocumentTypeLabResult,
	DocumentTypePrescription,
	DocumentTypeImagingReport,
	DocumentTypeNote,
	DocumentTypeWearableSummary,
}

// IsKnown reports whether t is one of KnownDocumentTypes
func (t DocumentType) IsKnown() bool {
	for _, known := range KnownDocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Document is the ingestion input. Content is chunked and not persisted as a whole.
type Document struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Content    string       `json:"content,omitempty"`
	Type       DocumentType `json:"type"`
	SourceFile string       `json:"source_file,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Validate checks the caller-supplied fields required for ingestion
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id cannot be empty")
	}
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("document title cannot be empty")
	}
	if strings.TrimSpace(string(d.Type)) == "" {
		return errors.New("document type cannot be empty")
	}
	return nil
}

// DocumentInfo is the listing view of a stored document
type DocumentInfo struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Type       DocumentType `json:"type"`
	SourceFile string       `json:"source_file,omitempty"`
	ChunkCount int          `json:"chunk_count"`
	CreatedAt  time.Time    `json:"created_at"`
}

// KnowledgeBaseStats counts what a store holds
type KnowledgeBaseStats struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	Embeddings int `json:"embeddings"`
}
