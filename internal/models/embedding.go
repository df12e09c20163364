// ABOUTME: Embedding models for vector storage and semantic search
// ABOUTME: One fixed-length vector per chunk, keyed by chunk ID
package models

import (
	"errors"
	"fmt"
	"time"
)

// Embedding represents a stored embedding vector for a chunk
type Embedding struct {
	ChunkID   string    `json:"chunk_id"`
	Vector    []float64 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateDimension checks the vector against the configured dimensionality
func (e *Embedding) ValidateDimension(expected int) error {
	if len(e.Vector) == 0 {
		return errors.New("embedding vector cannot be empty")
	}
	if len(e.Vector) != expected {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", expected, len(e.Vector))
	}
	return nil
}
