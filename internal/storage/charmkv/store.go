// ABOUTME: Knowledge-base store over Charm KV for cloud-synced copies across devices
// ABOUTME: Documents, chunks and embeddings are JSON values under doc:, chunk:, embedding: keys
package charmkv

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/harper/health-copilot/internal/charm"
	"github.com/harper/health-copilot/internal/models"
)

// KV is the key-value surface the store needs; *charm.Client satisfies it.
// Get returns nil, nil for a missing key.
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
	Close() error
}

// batcher is implemented by KVs that can coalesce remote syncs across writes
type batcher interface {
	Batch(fn func() error) error
}

type documentRecord struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Type       models.DocumentType `json:"type"`
	SourceFile string              `json:"source_file,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type chunkRecord struct {
	models.Chunk
	// Seq records first-write order so scans return chunks in storage order
	Seq int64 `json:"seq"`
}

// Store implements the context engine's store contract over Charm KV
type Store struct {
	kv  KV
	now func() time.Time
}

// New creates a Store over kv
func New(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Close closes the underlying KV
func (s *Store) Close() error {
	return s.kv.Close()
}

// SaveDocument upserts document metadata, keeping the original creation time
func (s *Store) SaveDocument(_ context.Context, doc *models.Document) error {
	existing, err := s.getDocument(doc.ID)
	if err != nil {
		return err
	}

	createdAt := doc.CreatedAt
	if existing != nil {
		createdAt = existing.CreatedAt
	} else if createdAt.IsZero() {
		createdAt = s.now()
	}

	return s.setJSON(charm.DocumentKey(doc.ID), documentRecord{
		ID:         doc.ID,
		Title:      doc.Title,
		Type:       doc.Type,
		SourceFile: doc.SourceFile,
		CreatedAt:  createdAt,
	})
}

// SaveChunk upserts a chunk and its embedding. The embedding is written
// first so a visible chunk always has a vector.
func (s *Store) SaveChunk(_ context.Context, chunk *models.Chunk, vector []float64) error {
	if len(vector) == 0 {
		return fmt.Errorf("embedding vector for chunk %s cannot be empty", chunk.ChunkID)
	}

	record := chunkRecord{Chunk: *chunk}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}

	var existing chunkRecord
	found, err := s.getJSON(charm.ChunkKey(chunk.ChunkID), &existing)
	if err != nil {
		return err
	}
	if found {
		record.Seq = existing.Seq
	} else {
		record.Seq = s.now().UnixNano()
	}

	return s.batch(func() error {
		if err := s.setJSON(charm.EmbeddingKey(chunk.ChunkID), models.Embedding{
			ChunkID:   chunk.ChunkID,
			Vector:    vector,
			CreatedAt: record.CreatedAt,
		}); err != nil {
			return fmt.Errorf("failed to save embedding for chunk %s: %w", chunk.ChunkID, err)
		}

		if err := s.setJSON(charm.ChunkKey(chunk.ChunkID), record); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", chunk.ChunkID, err)
		}
		return nil
	})
}

// PruneChunks drops a document's chunks whose ordinal is >= keep
func (s *Store) PruneChunks(_ context.Context, documentID string, keep int) error {
	chunks, err := s.chunkRecords()
	if err != nil {
		return err
	}

	return s.batch(func() error {
		for _, c := range chunks {
			if c.DocumentID == documentID && c.Index >= keep {
				if err := s.deleteChunk(c.ChunkID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListChunks returns all embedded chunks with their document metadata in storage order
func (s *Store) ListChunks(_ context.Context) ([]models.StoredChunk, error) {
	chunks, err := s.chunkRecords()
	if err != nil {
		return nil, err
	}

	docs := make(map[string]*documentRecord)
	var stored []models.StoredChunk

	for _, c := range chunks {
		doc, ok := docs[c.DocumentID]
		if !ok {
			doc, err = s.getDocument(c.DocumentID)
			if err != nil {
				return nil, err
			}
			docs[c.DocumentID] = doc
		}
		if doc == nil {
			continue
		}

		var emb models.Embedding
		found, err := s.getJSON(charm.EmbeddingKey(c.ChunkID), &emb)
		if err != nil {
			log.Printf("[CharmStore] malformed vector for chunk %s: %v", c.ChunkID, err)
			emb.Vector = nil
		}
		if !found && err == nil {
			continue
		}

		stored = append(stored, models.StoredChunk{
			Chunk:         c.Chunk,
			DocumentTitle: doc.Title,
			DocumentType:  doc.Type,
			SourceFile:    doc.SourceFile,
			Vector:        emb.Vector,
		})
	}

	return stored, nil
}

// GetChunks returns one document's chunks in ordinal order
func (s *Store) GetChunks(_ context.Context, documentID string) ([]models.Chunk, error) {
	records, err := s.chunkRecords()
	if err != nil {
		return nil, err
	}

	chunks := []models.Chunk{}
	for _, c := range records {
		if c.DocumentID == documentID {
			chunks = append(chunks, c.Chunk)
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// GetDocument returns document metadata, or nil if it does not exist
func (s *Store) GetDocument(ctx context.Context, id string) (*models.DocumentInfo, error) {
	doc, err := s.getDocument(id)
	if err != nil || doc == nil {
		return nil, err
	}

	chunks, err := s.GetChunks(ctx, id)
	if err != nil {
		return nil, err
	}

	info := toInfo(doc, len(chunks))
	return &info, nil
}

// ListDocuments returns all documents, newest first
func (s *Store) ListDocuments(_ context.Context) ([]models.DocumentInfo, error) {
	keys, err := s.kv.ListKeys(charm.DocumentPrefix)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkRecords()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, c := range chunks {
		counts[c.DocumentID]++
	}

	docs := []models.DocumentInfo{}
	for _, key := range keys {
		var doc documentRecord
		found, err := s.getJSON(key, &doc)
		if err != nil {
			return nil, err
		}
		if found {
			docs = append(docs, toInfo(&doc, counts[doc.ID]))
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// DeleteDocument removes a document with its chunks and embeddings
func (s *Store) DeleteDocument(_ context.Context, id string) (bool, error) {
	doc, err := s.getDocument(id)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	chunks, err := s.chunkRecords()
	if err != nil {
		return false, err
	}

	err = s.batch(func() error {
		for _, c := range chunks {
			if c.DocumentID == id {
				if err := s.deleteChunk(c.ChunkID); err != nil {
					return err
				}
			}
		}
		return s.kv.Delete(charm.DocumentKey(id))
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stats counts the document, chunk and embedding keys in the KV
func (s *Store) Stats(_ context.Context) (models.KnowledgeBaseStats, error) {
	var st models.KnowledgeBaseStats
	for _, c := range []struct {
		prefix string
		n      *int
	}{
		{charm.DocumentPrefix, &st.Documents},
		{charm.ChunkPrefix, &st.Chunks},
		{charm.EmbeddingPrefix, &st.Embeddings},
	} {
		keys, err := s.kv.ListKeys(c.prefix)
		if err != nil {
			return st, fmt.Errorf("failed to list %s keys: %w", c.prefix, err)
		}
		*c.n = len(keys)
	}
	return st, nil
}

// chunkRecords loads every chunk sorted by first-write order. Writes within
// one clock tick fall back to document then ordinal.
func (s *Store) chunkRecords() ([]chunkRecord, error) {
	keys, err := s.kv.ListKeys(charm.ChunkPrefix)
	if err != nil {
		return nil, err
	}

	chunks := make([]chunkRecord, 0, len(keys))
	for _, key := range keys {
		var c chunkRecord
		found, err := s.getJSON(key, &c)
		if err != nil {
			log.Printf("[CharmStore] skipping unreadable chunk %s: %v", key, err)
			continue
		}
		if found {
			chunks = append(chunks, c)
		}
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Seq != chunks[j].Seq {
			return chunks[i].Seq < chunks[j].Seq
		}
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

// batch runs fn inside a KV batch when the KV supports one
func (s *Store) batch(fn func() error) error {
	if b, ok := s.kv.(batcher); ok {
		return b.Batch(fn)
	}
	return fn()
}

func (s *Store) deleteChunk(chunkID string) error {
	if err := s.kv.Delete(charm.EmbeddingKey(chunkID)); err != nil {
		return err
	}
	return s.kv.Delete(charm.ChunkKey(chunkID))
}

func (s *Store) getDocument(id string) (*documentRecord, error) {
	var doc documentRecord
	found, err := s.getJSON(charm.DocumentKey(id), &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) setJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.kv.Set(key, data)
}

// getJSON reports whether key exists and decodes it into dest
func (s *Store) getJSON(key string, dest interface{}) (bool, error) {
	data, err := s.kv.Get(key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func toInfo(doc *documentRecord, chunkCount int) models.DocumentInfo {
	return models.DocumentInfo{
		ID:         doc.ID,
		Title:      doc.Title,
		Type:       doc.Type,
		SourceFile: doc.SourceFile,
		ChunkCount: chunkCount,
		CreatedAt:  doc.CreatedAt,
	}
}
