// ABOUTME: Opens the knowledge-base backend selected by configuration
// ABOUTME: SQLite for local use, Charm KV for a copy synced across devices
package storage

import (
	"context"
	"fmt"

	"github.com/harper/health-copilot/internal/charm"
	"github.com/harper/health-copilot/internal/config"
	"github.com/harper/health-copilot/internal/core"
	"github.com/harper/health-copilot/internal/models"
	"github.com/harper/health-copilot/internal/storage/charmkv"
	"github.com/harper/health-copilot/internal/storage/sqlite"
)

// Store is a context engine store that can also list a document's chunks
// and report its totals
type Store interface {
	core.Store
	GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error)
	Stats(ctx context.Context) (models.KnowledgeBaseStats, error)
}

var (
	_ Store = (*sqlite.Storage)(nil)
	_ Store = (*charmkv.Store)(nil)
)

// Open returns the backend named by cfg.StorageBackend
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendCharm:
		client, err := charm.GetClient(charm.ConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Charm: %w", err)
		}
		return charmkv.New(client), nil

	case config.BackendSQLite, "":
		path := cfg.DBPath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		store, err := sqlite.NewStorageWithPath(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
