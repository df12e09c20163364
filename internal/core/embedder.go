// ABOUTME: Embedding strategies for chunks and queries
// ABOUTME: Real provider embeddings with a deterministic fallback selected per call
package core

import (
	"context"
	"log"
	"math"
	"time"
)

const (
	// DefaultEmbeddingDimension matches text-embedding-3-small
	DefaultEmbeddingDimension = 1536
	// DefaultMaxInputChars is the longest text sent to a provider
	DefaultMaxInputChars = 8192
	// DefaultEmbeddingTimeout bounds a single provider call
	DefaultEmbeddingTimeout = 30 * time.Second
)

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbeddingProvider is a remote embedding API client
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// RealEmbedder asks an embedding provider for vectors
type RealEmbedder struct {
	provider EmbeddingProvider
}

// NewRealEmbedder creates an Embedder backed by provider
func NewRealEmbedder(provider EmbeddingProvider) *RealEmbedder {
	return &RealEmbedder{provider: provider}
}

// Embed returns the provider's vector for text
func (e *RealEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.provider.GenerateEmbedding(ctx, text)
}

// FallbackEmbedder derives a pseudo-embedding from the characters of the text.
// Vectors are deterministic and non-negative but carry no semantic meaning.
type FallbackEmbedder struct {
	dimension int
}

// NewFallbackEmbedder creates a FallbackEmbedder producing dimension components
func NewFallbackEmbedder(dimension int) *FallbackEmbedder {
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}
	return &FallbackEmbedder{dimension: dimension}
}

// Embed never fails. Empty text yields the zero vector.
func (e *FallbackEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return e.vector(text), nil
}

func (e *FallbackEmbedder) vector(text string) []float64 {
	vector := make([]float64, e.dimension)
	runes := []rune(text)
	if len(runes) == 0 {
		return vector
	}

	for i := range vector {
		vector[i] = 0.5 + 0.5*math.Sin(float64(runes[i%len(runes)])+float64(i))
	}
	return vector
}

// SelectorConfig tunes a SelectingEmbedder
type SelectorConfig struct {
	Dimension     int
	MaxInputChars int
	Timeout       time.Duration
}

// SelectingEmbedder uses the real embedder when one is configured and falls
// back to the deterministic vector whenever the real call cannot be used.
type SelectingEmbedder struct {
	real      Embedder
	fallback  *FallbackEmbedder
	dimension int
	maxInput  int
	timeout   time.Duration
}

// NewSelectingEmbedder creates a selector. real may be nil when no provider
// credential is configured.
func NewSelectingEmbedder(real Embedder, cfg SelectorConfig) *SelectingEmbedder {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultEmbeddingDimension
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultEmbeddingTimeout
	}

	return &SelectingEmbedder{
		real:      real,
		fallback:  NewFallbackEmbedder(cfg.Dimension),
		dimension: cfg.Dimension,
		maxInput:  cfg.MaxInputChars,
		timeout:   cfg.Timeout,
	}
}

// Dimension returns the length of every vector this embedder produces
func (s *SelectingEmbedder) Dimension() int {
	return s.dimension
}

// UsingProvider reports whether a real provider is configured
func (s *SelectingEmbedder) UsingProvider() bool {
	return s.real != nil
}

// Embed never returns an error
func (s *SelectingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	text = truncateRunes(text, s.maxInput)

	if s.real == nil {
		return s.fallback.vector(text), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vector, err := s.real.Embed(callCtx, text)
	if err != nil {
		log.Printf("[Embedder] provider unavailable, using fallback embedding: %v", err)
		return s.fallback.vector(text), nil
	}
	if len(vector) != s.dimension {
		log.Printf("[Embedder] provider returned %d dimensions, expected %d; using fallback embedding", len(vector), s.dimension)
		return s.fallback.vector(text), nil
	}

	return vector, nil
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
