// ABOUTME: Wires configuration, storage, embedders and the chat model into a running copilot
// ABOUTME: Shared by the CLI and the standalone MCP server
package app

import (
	"fmt"
	"log"

	"github.com/harper/health-copilot/internal/config"
	"github.com/harper/health-copilot/internal/core"
	"github.com/harper/health-copilot/internal/llm"
	"github.com/harper/health-copilot/internal/storage"
)

// App holds the long-lived components of one copilot process
type App struct {
	Config   *config.Config
	Store    storage.Store
	Embedder *core.SelectingEmbedder
	Engine   *core.Engine
	Copilot  *core.Copilot
}

// New opens the configured store and builds the engine on top of it
func New(cfg *config.Config) (*App, error) {
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a, err := NewWithStore(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore builds the engine on an already open store
func NewWithStore(cfg *config.Config, store storage.Store) (*App, error) {
	provider, err := llm.NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	var real core.Embedder
	if provider != nil {
		real = core.NewRealEmbedder(provider)
	} else {
		log.Printf("[App] no %s credential configured, using fallback embeddings", cfg.EmbeddingProvider)
	}

	embedder := core.NewSelectingEmbedder(real, core.SelectorConfig{
		Dimension:     cfg.EmbeddingDimension,
		MaxInputChars: cfg.EmbeddingMaxInput,
		Timeout:       cfg.Timeout,
	})

	engine := core.NewEngine(store, embedder,
		core.WithChunker(core.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)),
		core.WithSearchDefaults(cfg.SearchLimit, cfg.SearchThreshold),
		core.WithContextDefaults(cfg.ContextCandidates, cfg.ContextThreshold, cfg.ContextMaxTokens),
	)

	chat, err := llm.NewChatClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat client: %w", err)
	}

	var completer core.Completer
	if chat != nil {
		completer = chat
	}

	return &App{
		Config:   cfg,
		Store:    store,
		Embedder: embedder,
		Engine:   engine,
		Copilot:  core.NewCopilot(engine, nil, completer),
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
