// ABOUTME: Tests for component wiring
// ABOUTME: Verifies fallback embeddings and chat model selection from configuration
package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/health-copilot/internal/config"
	"github.com/harper/health-copilot/internal/models"
	"github.com/harper/health-copilot/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithStore_NoCredentials(t *testing.T) {
	store, err := sqlite.NewStorageInMemory()
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.EmbeddingDimension = 16

	a, err := NewWithStore(cfg, store)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.False(t, a.Embedder.UsingProvider())
	assert.Equal(t, 16, a.Embedder.Dimension())
	assert.False(t, a.Copilot.CanComplete())

	ctx := context.Background()
	doc := &models.Document{ID: "note", Title: "Note", Type: models.DocumentTypeNote, Content: "slept seven hours"}
	result, err := a.Engine.Ingest(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksCreated)

	hits := a.Engine.Search(ctx, "slept seven hours", 5, 0.99)
	require.Len(t, hits, 1)
	assert.Equal(t, "note", hits[0].DocumentID)
}

func TestNewWithStore_WithOpenAIKey(t *testing.T) {
	store, err := sqlite.NewStorageInMemory()
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.OpenAIKey = "sk-test"

	a, err := NewWithStore(cfg, store)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.True(t, a.Embedder.UsingProvider())
	assert.True(t, a.Copilot.CanComplete())
}

func TestNew_OpensSQLite(t *testing.T) {
	cfg := config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "knowledge.db")

	a, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	docs, err := a.Engine.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// fakeOllama answers both Ollama embedding endpoints with a fixed vector
func fakeOllama(t *testing.T, vector []float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/embed":
			_ = json.NewEncoder(w).Encode(map[string]any{"model": "nomic-embed-text", "embeddings": [][]float32{vector}})
		case strings.HasPrefix(r.URL.Path, "/api/embeddings"):
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vector})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewWithStore_OllamaDefaultsUseProviderVectors(t *testing.T) {
	vector := make([]float32, 768)
	for i := range vector {
		vector[i] = 0.25
		if i%2 == 0 {
			vector[i] = 0.5
		}
	}
	srv := fakeOllama(t, vector)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{"OPENAI_API_KEY", "EMBEDDING_DIMENSION", "COPILOT_EMBEDDING_MODEL", "COPILOT_CONFIG"} {
		t.Setenv(key, "")
	}
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", srv.URL)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.EmbeddingDimension)

	store, err := sqlite.NewStorageInMemory()
	require.NoError(t, err)
	a, err := NewWithStore(cfg, store)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.True(t, a.Embedder.UsingProvider())
	got, err := a.Embedder.Embed(context.Background(), "hemoglobin a1c 5.4")
	require.NoError(t, err)
	require.Len(t, got, 768)
	for i, v := range got {
		if v != float64(vector[i]) {
			t.Fatalf("component %d = %v, want provider value %v (fallback used?)", i, v, vector[i])
		}
	}
}
