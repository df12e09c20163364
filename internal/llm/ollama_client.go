// ABOUTME: Ollama embedding provider backed by langchaingo
// ABOUTME: Lets the copilot embed locally with models such as nomic-embed-text
package llm

import (
	"context"
	"fmt"

	"github.com/harper/health-copilot/internal/config"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	// DefaultOllamaHost is where a local Ollama server listens
	DefaultOllamaHost = "http://localhost:11434"
	// DefaultOllamaModel is the default local embedding model
	DefaultOllamaModel = config.DefaultOllamaEmbeddingModel
)

// OllamaClient generates embeddings through a local Ollama server
type OllamaClient struct {
	embedder embeddings.Embedder
	host     string
	model    string
}

// NewOllamaClient creates an Ollama embedding client. Empty host or model
// select the defaults.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	llm, err := ollama.New(ollama.WithServerURL(host), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
	}

	return &OllamaClient{embedder: embedder, host: host, model: model}, nil
}

// Host returns the Ollama server URL
func (c *OllamaClient) Host() string {
	return c.host
}

// Model returns the embedding model name
func (c *OllamaClient) Model() string {
	return c.model
}

// GenerateEmbedding returns the embedding vector for text
func (c *OllamaClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	embedding32, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding with %s: %w", c.model, err)
	}

	embedding := make([]float64, len(embedding32))
	for i, v := range embedding32 {
		embedding[i] = float64(v)
	}
	return embedding, nil
}
