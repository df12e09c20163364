// ABOUTME: Document metadata storage operations for SQLite
// ABOUTME: Upserts keep created_at; deletes cascade to chunks and embeddings
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/harper/health-copilot/internal/models"
)

// DocumentStore handles document persistence
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save inserts a document or updates its metadata if the id already exists
func (s *DocumentStore) Save(ctx context.Context, doc *models.Document) error {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO documents (id, title, type, source_file, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			source_file = excluded.source_file
	`, doc.ID, doc.Title, string(doc.Type), nullString(doc.SourceFile), createdAt)

	return err
}

// Get retrieves a document with its chunk count, or nil if it does not exist
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.DocumentInfo, error) {
	row := s.db.QueryRow(ctx, `
		SELECT d.id, d.title, d.type, d.source_file, d.created_at, COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		WHERE d.id = ?
		GROUP BY d.id
	`, id)

	info, err := scanDocumentInfo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// List returns all documents, newest first
func (s *DocumentStore) List(ctx context.Context) ([]models.DocumentInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT d.id, d.title, d.type, d.source_file, d.created_at, COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := []models.DocumentInfo{}
	for rows.Next() {
		info, err := scanDocumentInfo(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *info)
	}

	return docs, rows.Err()
}

// Delete removes a document; its chunks and embeddings go with it.
// Returns false when no document had the id.
func (s *DocumentStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocumentInfo(row rowScanner) (*models.DocumentInfo, error) {
	var (
		info       models.DocumentInfo
		docType    string
		sourceFile sql.NullString
	)

	if err := row.Scan(&info.ID, &info.Title, &docType, &sourceFile, &info.CreatedAt, &info.ChunkCount); err != nil {
		return nil, err
	}

	info.Type = models.DocumentType(docType)
	if sourceFile.Valid {
		info.SourceFile = sourceFile.String
	}
	return &info, nil
}

// nullString converts empty strings to SQL NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
