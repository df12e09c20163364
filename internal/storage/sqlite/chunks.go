// ABOUTME: Chunk storage operations for SQLite
// ABOUTME: Writes a chunk and its embedding together and scans them in storage order
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/harper/health-copilot/internal/models"
)

// ChunkStore handles chunk persistence
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveWithEmbedding upserts a chunk and its vector in one transaction
func (s *ChunkStore) SaveWithEmbedding(ctx context.Context, chunk *models.Chunk, vector []float64) error {
	if len(vector) == 0 {
		return fmt.Errorf("embedding vector for chunk %s cannot be empty", chunk.ChunkID)
	}

	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, content, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at
	`, chunk.ChunkID, chunk.DocumentID, chunk.Index, chunk.Content, createdAt); err != nil {
		return fmt.Errorf("failed to save chunk %s: %w", chunk.ChunkID, err)
	}

	if err := upsertEmbedding(ctx, tx, chunk.ChunkID, vector, createdAt); err != nil {
		return fmt.Errorf("failed to save embedding for chunk %s: %w", chunk.ChunkID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk %s: %w", chunk.ChunkID, err)
	}
	return nil
}

// GetByDocument returns a document's chunks in ordinal order
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]models.Chunk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, document_id, chunk_index, content, created_at
		FROM chunks
		WHERE document_id = ?
		ORDER BY chunk_index ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := []models.Chunk{}
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Index, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// DeleteFrom removes a document's chunks whose ordinal is >= keep
func (s *ChunkStore) DeleteFrom(ctx context.Context, documentID string, keep int) (int64, error) {
	result, err := s.db.Exec(ctx,
		"DELETE FROM chunks WHERE document_id = ? AND chunk_index >= ?", documentID, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListWithEmbeddings returns every embedded chunk joined with its document
// metadata, in insertion order. A row whose vector cannot be decoded is
// returned with a nil Vector so scoring can skip it.
func (s *ChunkStore) ListWithEmbeddings(ctx context.Context) ([]models.StoredChunk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.created_at,
		       d.title, d.type, d.source_file, e.dimension, e.vector
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		JOIN embeddings e ON e.chunk_id = c.id
		ORDER BY c.rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var stored []models.StoredChunk
	for rows.Next() {
		var (
			sc         models.StoredChunk
			docType    string
			sourceFile sql.NullString
			dimension  int
			blob       []byte
		)

		if err := rows.Scan(&sc.ChunkID, &sc.DocumentID, &sc.Index, &sc.Content, &sc.CreatedAt,
			&sc.DocumentTitle, &docType, &sourceFile, &dimension, &blob); err != nil {
			return nil, err
		}

		sc.DocumentType = models.DocumentType(docType)
		if sourceFile.Valid {
			sc.SourceFile = sourceFile.String
		}

		vector, err := blobToVector(blob, dimension)
		if err != nil {
			log.Printf("[ChunkStore] malformed vector for chunk %s: %v", sc.ChunkID, err)
		} else {
			sc.Vector = vector
		}

		stored = append(stored, sc)
	}

	return stored, rows.Err()
}
