// ABOUTME: Embedding storage operations for SQLite
// ABOUTME: Stores vectors as little-endian float64 BLOBs with their dimension
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// EmbeddingStore handles embedding persistence
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// upsertEmbedding writes a vector for a chunk through db or a transaction
func upsertEmbedding(ctx context.Context, ex execer, chunkID string, vector []float64, createdAt time.Time) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO embeddings (chunk_id, dimension, vector, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			dimension = excluded.dimension,
			vector = excluded.vector,
			created_at = excluded.created_at
	`, chunkID, len(vector), vectorToBlob(vector), createdAt)
	return err
}

// Count returns the number of stored embeddings
func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n)
	return n, err
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob back to a float64 slice, rejecting
// truncated blobs, dimension mismatches, and non-finite components
func blobToVector(blob []byte, dimension int) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 8", len(blob))
	}
	count := len(blob) / 8
	if count != dimension {
		return nil, fmt.Errorf("vector has %d components, stored dimension is %d", count, dimension)
	}

	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		v := math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("vector component %d is not finite", i)
		}
		vector[i] = v
	}
	return vector, nil
}
