// ABOUTME: Builds the embedding provider and chat client selected by configuration
// ABOUTME: Returns nil clients when no credential is configured so callers fall back
package llm

import (
	"context"
	"fmt"

	"github.com/harper/health-copilot/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingProvider is a remote embedding API client
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// NewEmbeddingProvider returns the configured provider, or nil when the
// provider has no credential
func NewEmbeddingProvider(cfg *config.Config) (EmbeddingProvider, error) {
	if !cfg.HasProviderCredential() {
		return nil, nil
	}

	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		client, err := NewOllamaClient(cfg.OllamaHost, ollamaModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := NewOpenAIClientWithConfig(clientConfig(cfg))
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// NewChatClient returns an OpenAI chat client, or nil without an API key
func NewChatClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, nil
	}
	return NewOpenAIClientWithConfig(clientConfig(cfg))
}

func clientConfig(cfg *config.Config) *ClientConfig {
	clientCfg := DefaultConfig(cfg.OpenAIKey)
	clientCfg.ChatModel = cfg.ChatModel
	clientCfg.EmbeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	clientCfg.Dimensions = cfg.EmbeddingDimension
	clientCfg.Timeout = cfg.Timeout
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RetryDelay = cfg.RetryDelay
	clientCfg.RequestsPerSecond = cfg.RateLimit
	return clientCfg
}

// ollamaModel maps the OpenAI default model name to the Ollama default
func ollamaModel(model string) string {
	if model == "" || model == string(DefaultEmbeddingModel) {
		return DefaultOllamaModel
	}
	return model
}
