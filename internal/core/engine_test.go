// ABOUTME: Tests for the document context engine
// ABOUTME: Covers ingestion, ranking, token-bounded context, and fail-soft retrieval

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/harper/health-copilot/internal/models"
	"github.com/harper/health-copilot/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVocabulary = []string{
	"penicillin", "allergy", "allergic", "shellfish", "glucose",
	"cholesterol", "blood", "pressure", "sleep", "heart",
}

// keywordEmbedder counts vocabulary terms so tests can predict similarity
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vector := make([]float64, len(testVocabulary))
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range tokens {
		for i, term := range testVocabulary {
			if tok == term {
				vector[i]++
			}
		}
	}
	return vector, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("provider unreachable")
}

// flakyStore fails selected operations of an otherwise working store
type flakyStore struct {
	*sqlite.Storage
	failChunkIndex int
	failList       bool
}

func (s *flakyStore) SaveChunk(ctx context.Context, chunk *models.Chunk, vector []float64) error {
	if chunk.Index == s.failChunkIndex {
		return errors.New("disk I/O error")
	}
	return s.Storage.SaveChunk(ctx, chunk, vector)
}

func (s *flakyStore) ListChunks(ctx context.Context) ([]models.StoredChunk, error) {
	if s.failList {
		return nil, errors.New("database is locked")
	}
	return s.Storage.ListChunks(ctx)
}

func newTestStore(t *testing.T) *sqlite.Storage {
	t.Helper()
	store, err := sqlite.NewStorageInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newKeywordEngine(t *testing.T, opts ...Option) (*Engine, *sqlite.Storage) {
	t.Helper()
	store := newTestStore(t)
	opts = append([]Option{WithContextDefaults(10, 0.0, 2000)}, opts...)
	return NewEngine(store, keywordEmbedder{}, opts...), store
}

func ingest(t *testing.T, e *Engine, id, title string, docType models.DocumentType, content string) models.IngestResult {
	t.Helper()
	result, err := e.Ingest(context.Background(), &models.Document{
		ID: id, Title: title, Type: docType, Content: content,
	})
	require.NoError(t, err)
	return result
}

func TestEngine_IngestThenSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	e := NewEngine(store, NewSelectingEmbedder(nil, SelectorConfig{}))

	result, err := e.Ingest(ctx, &models.Document{
		ID:      "doc1",
		Title:   "Allergy List",
		Content: "Patient is allergic to penicillin and shellfish.",
		Type:    models.DocumentTypeMedicalRecord,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ChunksCreated)

	results := e.Search(ctx, "penicillin allergy", 5, 0.0)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		if r.DocumentID == "doc1" && strings.Contains(r.ChunkText, "penicillin") {
			found = true
		}
	}
	assert.True(t, found, "expected a doc1 chunk mentioning penicillin")
}

func TestEngine_CitationFormat(t *testing.T) {
	e, _ := newKeywordEngine(t, WithChunker(NewChunker(3, 0)))
	ingest(t, e, "labs", "Labs", models.DocumentTypeLabResult,
		"glucose was high. cholesterol was fine. glucose retest pending")

	results := e.Search(context.Background(), "glucose", 10, -1)

	var third *models.SearchResult
	for i := range results {
		if results[i].ChunkIndex == 2 {
			third = &results[i]
		}
	}
	require.NotNil(t, third)
	assert.Equal(t, "Labs (lab_result, section 3)", third.Citation)
}

func TestEngine_CitationPrefersSourceFile(t *testing.T) {
	e, _ := newKeywordEngine(t)
	_, err := e.Ingest(context.Background(), &models.Document{
		ID: "bp", Title: "BP Log", Type: models.DocumentTypeWearableSummary,
		SourceFile: "bp-2024.csv", Content: "blood pressure readings",
	})
	require.NoError(t, err)

	results := e.Search(context.Background(), "blood pressure", 5, 0.1)
	require.Len(t, results, 1)
	assert.Equal(t, "BP Log (bp-2024.csv, section 1)", results[0].Citation)
}

func TestEngine_IngestEmptyContent(t *testing.T) {
	ctx := context.Background()
	e, store := newKeywordEngine(t)

	result := ingest(t, e, "empty", "Blank", models.DocumentTypeNote, "")
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ChunksCreated)

	chunks, err := store.GetChunks(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestEngine_IngestIdempotent(t *testing.T) {
	ctx := context.Background()
	e, store := newKeywordEngine(t, WithChunker(NewChunker(4, 1)))
	content := "sleep was poor heart rate elevated blood pressure normal glucose stable"

	first := ingest(t, e, "visit", "Visit", models.DocumentTypeNote, content)
	before, err := store.GetChunks(ctx, "visit")
	require.NoError(t, err)

	second := ingest(t, e, "visit", "Visit", models.DocumentTypeNote, content)
	after, err := store.GetChunks(ctx, "visit")
	require.NoError(t, err)

	assert.Equal(t, first.ChunksCreated, second.ChunksCreated)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ChunkID, after[i].ChunkID)
		assert.Equal(t, before[i].Content, after[i].Content)
	}
}

func TestEngine_ReingestShorterPrunes(t *testing.T) {
	ctx := context.Background()
	e, store := newKeywordEngine(t, WithChunker(NewChunker(2, 0)))

	ingest(t, e, "note", "Note", models.DocumentTypeNote, "a b c d e f")
	ingest(t, e, "note", "Note", models.DocumentTypeNote, "a b")

	chunks, err := store.GetChunks(ctx, "note")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a b", chunks[0].Content)
}

func TestEngine_SearchThresholdAndRanking(t *testing.T) {
	e, _ := newKeywordEngine(t)
	ingest(t, e, "a", "A", models.DocumentTypeNote, "glucose glucose sleep")
	ingest(t, e, "b", "B", models.DocumentTypeNote, "glucose")
	ingest(t, e, "c", "C", models.DocumentTypeNote, "sleep heart")

	results := e.Search(context.Background(), "glucose", 10, 0.5)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].DocumentID)
	assert.Equal(t, "a", results[1].DocumentID)

	for i, r := range results {
		assert.GreaterOrEqual(t, r.RelevanceScore, 0.5)
		if i > 0 {
			assert.LessOrEqual(t, r.RelevanceScore, results[i-1].RelevanceScore)
		}
	}
}

func TestEngine_SearchTiesKeepStorageOrder(t *testing.T) {
	e, _ := newKeywordEngine(t)
	ingest(t, e, "first", "First", models.DocumentTypeNote, "cholesterol panel")
	ingest(t, e, "second", "Second", models.DocumentTypeNote, "cholesterol panel")
	ingest(t, e, "third", "Third", models.DocumentTypeNote, "cholesterol panel")

	results := e.Search(context.Background(), "cholesterol", 10, 0.0)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].DocumentID)
	assert.Equal(t, "second", results[1].DocumentID)
	assert.Equal(t, "third", results[2].DocumentID)
}

func TestEngine_SearchLimit(t *testing.T) {
	e, _ := newKeywordEngine(t)
	for i := 0; i < 8; i++ {
		ingest(t, e, fmt.Sprintf("d%d", i), "Heart", models.DocumentTypeNote, "heart rate")
	}

	assert.Len(t, e.Search(context.Background(), "heart", 3, 0.0), 3)
	assert.Len(t, e.Search(context.Background(), "heart", 0, 0.0), DefaultSearchLimit)
}

func TestEngine_SearchDefaults(t *testing.T) {
	e, _ := newKeywordEngine(t, WithSearchDefaults(2, 0.9))
	ingest(t, e, "exact", "Exact", models.DocumentTypeNote, "sleep")
	ingest(t, e, "partial", "Partial", models.DocumentTypeNote, "sleep heart")

	results := e.SearchDefaults(context.Background(), "sleep")
	require.Len(t, results, 1)
	assert.Equal(t, "exact", results[0].DocumentID)
}

func TestEngine_SearchSkipsMismatchedVectors(t *testing.T) {
	ctx := context.Background()
	e, store := newKeywordEngine(t)
	ingest(t, e, "good", "Good", models.DocumentTypeNote, "blood glucose")

	require.NoError(t, store.SaveDocument(ctx, &models.Document{ID: "odd", Title: "Odd", Type: models.DocumentTypeNote}))
	require.NoError(t, store.SaveChunk(ctx, &models.Chunk{
		ChunkID: models.ChunkID("odd", 0), DocumentID: "odd", Content: "glucose",
	}, []float64{1, 2, 3}))

	results := e.Search(ctx, "glucose", 10, 0.0)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].DocumentID)
}

func TestEngine_GetContextFormat(t *testing.T) {
	e, _ := newKeywordEngine(t)
	ingest(t, e, "labs", "Labs", models.DocumentTypeLabResult, "Fasting glucose 92 mg/dL.")

	result := e.GetContext(context.Background(), "glucose", 100)

	assert.Equal(t, "Fasting glucose 92 mg/dL.\n[Source: Labs (lab_result, section 1)]", result.Context)
	assert.Equal(t, 7, result.TokenCount)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "labs", result.Citations[0].DocumentID)
	assert.Equal(t, "Labs (lab_result, section 1)", result.Citations[0].Label)
}

func TestEngine_GetContextOrderAndSeparator(t *testing.T) {
	e, _ := newKeywordEngine(t)
	ingest(t, e, "weak", "Weak", models.DocumentTypeNote, "glucose sleep heart")
	ingest(t, e, "strong", "Strong", models.DocumentTypeNote, "glucose")

	result := e.GetContext(context.Background(), "glucose", 1000)

	parts := strings.Split(result.Context, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "glucose\n[Source: Strong"))
	assert.True(t, strings.HasPrefix(parts[1], "glucose sleep heart\n[Source: Weak"))

	require.Len(t, result.Citations, 2)
	assert.Equal(t, "strong", result.Citations[0].DocumentID)
	assert.Equal(t, "weak", result.Citations[1].DocumentID)
}

func TestEngine_GetContextTokenBudget(t *testing.T) {
	e, _ := newKeywordEngine(t)
	for i := 0; i < 10; i++ {
		ingest(t, e, fmt.Sprintf("bp%d", i), "BP", models.DocumentTypeNote,
			fmt.Sprintf("blood pressure reading number %d was within range", i))
	}

	for _, budget := range []int{1, 12, 13, 25, 40, 100, 10000} {
		result := e.GetContext(context.Background(), "blood pressure", budget)

		assert.LessOrEqual(t, result.TokenCount, budget, "budget %d", budget)
		assert.Equal(t, len(result.Citations), strings.Count(result.Context, "[Source: "), "budget %d", budget)

		sum := 0
		for _, part := range strings.Split(result.Context, "\n\n") {
			if part == "" {
				continue
			}
			text := part[:strings.Index(part, "\n[Source: ")]
			sum += EstimateTokens(text)
		}
		assert.Equal(t, sum, result.TokenCount, "budget %d", budget)
	}
}

func TestEngine_GetContextStrictBudget(t *testing.T) {
	e, _ := newKeywordEngine(t)
	ingest(t, e, "long", "Long", models.DocumentTypeNote,
		"sleep "+strings.Repeat("restless ", 30))

	result := e.GetContext(context.Background(), "sleep", 5)

	assert.Equal(t, "", result.Context)
	assert.Empty(t, result.Citations)
	assert.NotNil(t, result.Citations)
	assert.Equal(t, 0, result.TokenCount)
}

func TestEngine_GetContextCandidateLimit(t *testing.T) {
	e, _ := newKeywordEngine(t, WithContextDefaults(3, 0.0, 2000))
	for i := 0; i < 6; i++ {
		ingest(t, e, fmt.Sprintf("h%d", i), "Heart", models.DocumentTypeNote, "heart")
	}

	result := e.GetContext(context.Background(), "heart", 0)
	assert.Len(t, result.Citations, 3)
}

func TestEngine_FailSoftWhenEmbedderFails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seed := NewEngine(store, keywordEmbedder{})
	ingest(t, seed, "doc", "Doc", models.DocumentTypeNote, "glucose")

	e := NewEngine(store, failingEmbedder{})

	results := e.Search(ctx, "glucose", 5, 0.0)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	result := e.GetContext(ctx, "glucose", 500)
	assert.Equal(t, "", result.Context)
	assert.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
	assert.Equal(t, 0, result.TokenCount)
}

func TestEngine_FailSoftWhenStoreFails(t *testing.T) {
	store := &flakyStore{Storage: newTestStore(t), failChunkIndex: -1, failList: true}
	e := NewEngine(store, keywordEmbedder{})

	assert.Empty(t, e.Search(context.Background(), "glucose", 5, 0.0))
	assert.Equal(t, emptyContext(), e.GetContext(context.Background(), "glucose", 500))
}

func TestEngine_IngestStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Storage: newTestStore(t), failChunkIndex: 1}
	e := NewEngine(store, keywordEmbedder{}, WithChunker(NewChunker(2, 0)))

	_, err := e.Ingest(ctx, &models.Document{
		ID: "rx", Title: "Prescriptions", Type: models.DocumentTypePrescription,
		Content: "atorvastatin 20mg lisinopril 10mg metformin 500mg",
	})
	require.Error(t, err)

	var ingestErr *IngestionError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "rx", ingestErr.DocumentID)
	assert.Equal(t, IngestionUserMessage, ingestErr.UserMessage())
	assert.Contains(t, err.Error(), "disk I/O error")

	chunks, err := store.GetChunks(ctx, "rx")
	require.NoError(t, err)
	require.Len(t, chunks, 1, "chunks written before the failure stay")
	assert.Equal(t, 0, chunks[0].Index)
}

func TestEngine_IngestEmbedderFailure(t *testing.T) {
	e := NewEngine(newTestStore(t), failingEmbedder{})

	_, err := e.Ingest(context.Background(), &models.Document{
		ID: "doc", Title: "Doc", Type: models.DocumentTypeNote, Content: "text",
	})

	var ingestErr *IngestionError
	require.ErrorAs(t, err, &ingestErr)
	assert.Contains(t, ingestErr.Error(), "provider unreachable")
}

func TestEngine_IngestInvalidDocument(t *testing.T) {
	e, _ := newKeywordEngine(t)

	tests := []struct {
		name string
		doc  *models.Document
	}{
		{"nil", nil},
		{"missing id", &models.Document{Title: "T", Type: models.DocumentTypeNote}},
		{"missing title", &models.Document{ID: "x", Type: models.DocumentTypeNote}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Ingest(context.Background(), tt.doc)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestEngine_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	e, _ := newKeywordEngine(t)
	ingest(t, e, "gone", "Gone", models.DocumentTypeNote, "shellfish allergy")
	ingest(t, e, "kept", "Kept", models.DocumentTypeNote, "shellfish")

	deleted, err := e.DeleteDocument(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, deleted)

	for _, r := range e.Search(ctx, "shellfish", 10, 0.0) {
		assert.NotEqual(t, "gone", r.DocumentID)
	}

	docs, err := e.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].ID)

	info, err := e.GetDocument(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestEngine_ConcurrentIngestAndSearch(t *testing.T) {
	e, _ := newKeywordEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := e.Ingest(ctx, &models.Document{
				ID: fmt.Sprintf("c%d", i), Title: "Concurrent", Type: models.DocumentTypeNote,
				Content: "heart rate and sleep quality",
			})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_ = e.Search(ctx, "heart", 5, 0.0)
			_ = e.GetContext(ctx, "sleep", 100)
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	docs, err := e.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 8)
	assert.Len(t, e.Search(ctx, "heart", 10, 0.0), 8)
}
