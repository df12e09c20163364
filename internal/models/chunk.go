// ABOUTME: Chunk represents a contiguous word window of a document
// ABOUTME: Chunk IDs derive from document ID + ordinal so re-ingestion upserts
package models

import (
	"fmt"
	"time"
)

// Chunk represents a slice of a document's text, the unit of embedding
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChunkID builds the stable id for the chunk at ordinal index of a document
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// StoredChunk joins a chunk with its document metadata and embedding vector.
// Stores return these in storage order.
type StoredChunk struct {
	Chunk
	DocumentTitle string       `json:"document_title"`
	DocumentType  DocumentType `json:"document_type"`
	SourceFile    string       `json:"source_file,omitempty"`
	Vector        []float64    `json:"-"`
}
