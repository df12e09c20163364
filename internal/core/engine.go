// ABOUTME: Engine is the document context engine behind chat and MCP surfaces
// ABOUTME: Ingests documents as embedded chunks and answers cited, token-bounded queries
package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/harper/health-copilot/internal/models"
)

const (
	// DefaultSearchLimit is the result count used when a caller passes none
	DefaultSearchLimit = 5
	// DefaultSearchThreshold is the minimum relevance for a plain search
	DefaultSearchThreshold = 0.7
	// DefaultContextCandidates is how many chunks context assembly considers
	DefaultContextCandidates = 10
	// DefaultContextThreshold favours recall when assembling context
	DefaultContextThreshold = 0.5
	// DefaultContextMaxTokens is the context budget used when a caller passes none
	DefaultContextMaxTokens = 2000
)

// Store persists documents, chunks and their embeddings
type Store interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	SaveChunk(ctx context.Context, chunk *models.Chunk, vector []float64) error
	PruneChunks(ctx context.Context, documentID string, keep int) error
	ListChunks(ctx context.Context) ([]models.StoredChunk, error)
	GetDocument(ctx context.Context, id string) (*models.DocumentInfo, error)
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
	Close() error
}

// Engine chunks, embeds, stores and retrieves health documents.
// It holds no mutable state of its own and is safe for concurrent use.
type Engine struct {
	store    Store
	embedder Embedder
	chunker  *Chunker

	searchLimit       int
	searchThreshold   float64
	contextCandidates int
	contextThreshold  float64
	contextMaxTokens  int
}

// Option configures an Engine
type Option func(*Engine)

// WithChunker replaces the default 1000/200 word chunker
func WithChunker(c *Chunker) Option {
	return func(e *Engine) {
		e.chunker = c
	}
}

// WithSearchDefaults sets the limit and threshold used by SearchDefaults
func WithSearchDefaults(limit int, threshold float64) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.searchLimit = limit
		}
		e.searchThreshold = threshold
	}
}

// WithContextDefaults sets how context assembly searches and its default budget
func WithContextDefaults(candidates int, threshold float64, maxTokens int) Option {
	return func(e *Engine) {
		if candidates > 0 {
			e.contextCandidates = candidates
		}
		e.contextThreshold = threshold
		if maxTokens > 0 {
			e.contextMaxTokens = maxTokens
		}
	}
}

// NewEngine creates an Engine over store using embedder for chunks and queries
func NewEngine(store Store, embedder Embedder, opts ...Option) *Engine {
	e := &Engine{
		store:             store,
		embedder:          embedder,
		chunker:           NewChunker(DefaultChunkSize, DefaultChunkOverlap),
		searchLimit:       DefaultSearchLimit,
		searchThreshold:   DefaultSearchThreshold,
		contextCandidates: DefaultContextCandidates,
		contextThreshold:  DefaultContextThreshold,
		contextMaxTokens:  DefaultContextMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store
func (e *Engine) Store() Store {
	return e.store
}

// Ingest chunks doc, embeds each chunk and stores chunk and vector together in
// ordinal order. Chunks left over from a longer earlier version are pruned.
func (e *Engine) Ingest(ctx context.Context, doc *models.Document) (models.IngestResult, error) {
	if doc == nil {
		return models.IngestResult{}, &IngestionError{Err: fmt.Errorf("%w: document is nil", ErrInvalidDocument)}
	}
	if err := doc.Validate(); err != nil {
		return models.IngestResult{}, &IngestionError{DocumentID: doc.ID, Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}

	chunks := e.chunker.ChunkDocument(doc)

	if err := e.store.SaveDocument(ctx, doc); err != nil {
		return models.IngestResult{}, &IngestionError{DocumentID: doc.ID, Err: err}
	}

	for i := range chunks {
		chunk := &chunks[i]

		vector, err := e.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return models.IngestResult{}, &IngestionError{
				DocumentID: doc.ID,
				Err:        fmt.Errorf("failed to embed chunk %s: %w", chunk.ChunkID, err),
			}
		}

		if err := e.store.SaveChunk(ctx, chunk, vector); err != nil {
			return models.IngestResult{}, &IngestionError{DocumentID: doc.ID, Err: err}
		}
	}

	if err := e.store.PruneChunks(ctx, doc.ID, len(chunks)); err != nil {
		return models.IngestResult{}, &IngestionError{DocumentID: doc.ID, Err: err}
	}

	return models.IngestResult{Success: true, ChunksCreated: len(chunks)}, nil
}

// Search returns up to limit chunks scoring at least threshold against query,
// best first, ties in storage order. A non-positive limit selects the default.
// Failures are logged and yield an empty result.
func (e *Engine) Search(ctx context.Context, query string, limit int, threshold float64) []models.SearchResult {
	if limit <= 0 {
		limit = e.searchLimit
	}

	results, err := e.rank(ctx, query, limit, threshold)
	if err != nil {
		log.Printf("[Engine] search degraded to empty result: %v", err)
		return []models.SearchResult{}
	}
	return results
}

// SearchDefaults runs Search with the configured limit and threshold
func (e *Engine) SearchDefaults(ctx context.Context, query string) []models.SearchResult {
	return e.Search(ctx, query, e.searchLimit, e.searchThreshold)
}

// SearchLimit is the configured result count for callers that pass none
func (e *Engine) SearchLimit() int { return e.searchLimit }

// SearchThreshold is the configured minimum relevance for a plain search
func (e *Engine) SearchThreshold() float64 { return e.searchThreshold }

// ContextMaxTokens is the configured context budget
func (e *Engine) ContextMaxTokens() int { return e.contextMaxTokens }

// GetContext assembles the most relevant chunks into one cited block whose
// estimated token count never exceeds maxTokens. Accumulation stops at the
// first chunk that would overflow the budget, even if it is the first one.
// Failures are logged and yield an empty context.
func (e *Engine) GetContext(ctx context.Context, query string, maxTokens int) models.ContextResult {
	if maxTokens <= 0 {
		maxTokens = e.contextMaxTokens
	}

	results, err := e.rank(ctx, query, e.contextCandidates, e.contextThreshold)
	if err != nil {
		log.Printf("[Engine] context degraded to empty result: %v", err)
		return emptyContext()
	}

	var parts []string
	citations := []models.Citation{}
	tokens := 0

	for _, r := range results {
		cost := EstimateTokens(r.ChunkText)
		if tokens+cost > maxTokens {
			break
		}

		parts = append(parts, fmt.Sprintf("%s\n[Source: %s]", r.ChunkText, r.Citation))
		citations = append(citations, models.CitationFor(r))
		tokens += cost
	}

	return models.ContextResult{
		Context:    strings.Join(parts, "\n\n"),
		Citations:  citations,
		TokenCount: tokens,
	}
}

// GetDocument returns document metadata, or nil if it does not exist
func (e *Engine) GetDocument(ctx context.Context, id string) (*models.DocumentInfo, error) {
	return e.store.GetDocument(ctx, id)
}

// ListDocuments returns every ingested document
func (e *Engine) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	return e.store.ListDocuments(ctx)
}

// DeleteDocument removes a document together with its chunks and embeddings
func (e *Engine) DeleteDocument(ctx context.Context, id string) (bool, error) {
	return e.store.DeleteDocument(ctx, id)
}

// rank scores every stored chunk against query. Chunks whose vector cannot be
// compared with the query vector are skipped.
func (e *Engine) rank(ctx context.Context, query string, limit int, threshold float64) ([]models.SearchResult, error) {
	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	stored, err := e.store.ListChunks(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(stored))
	for _, sc := range stored {
		if len(sc.Vector) != len(queryVector) {
			log.Printf("[Engine] skipping chunk %s: vector has %d dimensions, query has %d",
				sc.ChunkID, len(sc.Vector), len(queryVector))
			continue
		}

		score := CosineSimilarity(queryVector, sc.Vector)
		if score < threshold {
			continue
		}

		results = append(results, models.SearchResult{
			ChunkID:        sc.ChunkID,
			DocumentID:     sc.DocumentID,
			DocumentTitle:  sc.DocumentTitle,
			ChunkText:      sc.Content,
			ChunkIndex:     sc.Index,
			DocumentType:   sc.DocumentType,
			SourceFile:     sc.SourceFile,
			RelevanceScore: score,
			Citation:       models.FormatCitation(sc.DocumentTitle, sc.SourceFile, sc.DocumentType, sc.Index),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// EstimateTokens approximates the token count of text as ceil(runes/4)
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

func emptyContext() models.ContextResult {
	return models.ContextResult{Context: "", Citations: []models.Citation{}, TokenCount: 0}
}
