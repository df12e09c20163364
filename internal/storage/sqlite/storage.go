// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Satisfies the context engine's Store contract over one database
package sqlite

import (
	"context"
	"fmt"

	"github.com/harper/health-copilot/internal/models"
)

// Storage manages the document knowledge base in SQLite.
// Writes are single-row or single-chunk upserts, so no extra locking is needed.
type Storage struct {
	db         *DB
	documents  *DocumentStore
	chunks     *ChunkStore
	embeddings *EmbeddingStore
}

// NewStorage initializes storage at the default XDG path
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:         db,
		documents:  NewDocumentStore(db),
		chunks:     NewChunkStore(db),
		embeddings: NewEmbeddingStore(db),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database wrapper
func (s *Storage) DB() *DB {
	return s.db
}

// Stats counts documents, chunks and embeddings in the knowledge base
func (s *Storage) Stats(ctx context.Context) (models.KnowledgeBaseStats, error) {
	var st models.KnowledgeBaseStats
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&st.Documents); err != nil {
		return st, fmt.Errorf("failed to count documents: %w", err)
	}
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM chunks").Scan(&st.Chunks); err != nil {
		return st, fmt.Errorf("failed to count chunks: %w", err)
	}
	n, err := s.embeddings.Count(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to count embeddings: %w", err)
	}
	st.Embeddings = n
	return st, nil
}

// SaveDocument upserts document metadata
func (s *Storage) SaveDocument(ctx context.Context, doc *models.Document) error {
	if err := s.documents.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	return nil
}

// SaveChunk upserts a chunk together with its embedding
func (s *Storage) SaveChunk(ctx context.Context, chunk *models.Chunk, vector []float64) error {
	return s.chunks.SaveWithEmbedding(ctx, chunk, vector)
}

// PruneChunks drops chunks left over from a longer previous version of a document
func (s *Storage) PruneChunks(ctx context.Context, documentID string, keep int) error {
	if _, err := s.chunks.DeleteFrom(ctx, documentID, keep); err != nil {
		return fmt.Errorf("failed to prune chunks for %s: %w", documentID, err)
	}
	return nil
}

// ListChunks returns all embedded chunks in storage order
func (s *Storage) ListChunks(ctx context.Context) ([]models.StoredChunk, error) {
	chunks, err := s.chunks.ListWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	return chunks, nil
}

// GetChunks returns one document's chunks in ordinal order
func (s *Storage) GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	return s.chunks.GetByDocument(ctx, documentID)
}

// GetDocument returns document metadata, or nil if it does not exist
func (s *Storage) GetDocument(ctx context.Context, id string) (*models.DocumentInfo, error) {
	info, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return info, nil
}

// ListDocuments returns all documents, newest first
func (s *Storage) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document with its chunks and embeddings
func (s *Storage) DeleteDocument(ctx context.Context, id string) (bool, error) {
	deleted, err := s.documents.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return deleted, nil
}
