// ABOUTME: OpenAI client for embeddings and chat completions
// ABOUTME: Retries with exponential backoff and throttles requests with a token bucket
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/health-copilot/internal/util"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultDimensions matches text-embedding-3-small
	DefaultDimensions = 1536
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Dimensions     int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	// RequestsPerSecond caps the sustained request rate; zero disables throttling
	RequestsPerSecond float64
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:            apiKey,
		ChatModel:         DefaultChatModel,
		EmbeddingModel:    DefaultEmbeddingModel,
		Dimensions:        DefaultDimensions,
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        time.Second * 2,
		RequestsPerSecond: 5,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
	timeout        time.Duration
	maxRetries     int
	backoff        util.Backoff
	limiter        *rate.Limiter
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		chatModel:      config.ChatModel,
		embeddingModel: config.EmbeddingModel,
		dimensions:     config.Dimensions,
		timeout:        timeout,
		maxRetries:     config.MaxRetries,
		backoff:        util.Backoff{Base: config.RetryDelay},
		limiter:        limiter,
	}, nil
}

// GetClient returns the underlying OpenAI client for direct use
func (c *OpenAIClient) GetClient() *openai.Client {
	return c.client
}

// GenerateEmbedding returns the embedding vector for text
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64

	err := c.withRetry(ctx, "generate embedding", func(callCtx context.Context) error {
		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      c.embeddingModel,
			Dimensions: c.dimensions,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return errors.New("no embeddings returned")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})

	return embedding, err
}

// Complete asks the chat model to answer user under the given system prompt
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	var content string

	err := c.withRetry(ctx, "complete chat", func(callCtx context.Context) error {
		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: user,
				},
			},
			Temperature: 0.2, // Low temperature keeps answers close to the records
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}

		content = resp.Choices[0].Message.Content
		return nil
	})

	return content, err
}

// withRetry runs call up to maxRetries+1 times with backoff between attempts.
// Each attempt waits for the rate limiter and gets its own timeout.
func (c *OpenAIClient) withRetry(ctx context.Context, op string, call func(context.Context) error) error {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff.Wait(ctx, attempt); err != nil {
				return fmt.Errorf("failed to %s: %w", op, err)
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to %s: %w", op, err)
		}

		attempts++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := call(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)

		if !isRetryable(err) {
			break
		}
	}

	return fmt.Errorf("failed to %s after %d attempts: %w", op, attempts, lastErr)
}

// isRetryable reports whether an API error may succeed on a later attempt
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400, 401, 403, 404:
			return false
		}
	}
	return true
}
