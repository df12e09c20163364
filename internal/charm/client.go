// ABOUTME: Charm KV client wrapper for cloud-synced storage
// ABOUTME: Syncs the knowledge base across devices with automatic SSH key auth
package charm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/health-copilot/internal/config"
)

// Key prefixes for different entity types
const (
	DocumentPrefix  = "doc:"
	ChunkPrefix     = "chunk:"
	EmbeddingPrefix = "embedding:"
)

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// ConfigFrom extracts charm settings from the application configuration
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: cfg.AutoSync,
	}
}

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
	clientMu     sync.Mutex
)

// Client wraps charm KV for storage operations
type Client struct {
	kv     *kv.KV
	config *Config
	mu     sync.Mutex

	// batchDepth > 0 defers auto-sync until the outermost Batch returns
	batchDepth int
	dirty      bool
}

// Stats counts the knowledge-base records held locally
type Stats struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	Embeddings int `json:"embeddings"`
}

// GetClient returns the process-wide client, opening it with cfg if needed
func GetClient(cfg *Config) (*Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	// If client was closed, reinitialize
	if globalClient != nil && globalClient.kv == nil {
		clientOnce = sync.Once{}
		globalClient = nil
	}

	clientOnce.Do(func() {
		globalClient, clientErr = NewClient(cfg)
	})
	return globalClient, clientErr
}

// ResetGlobalClient closes and forgets the process-wide client
func ResetGlobalClient() {
	clientMu.Lock()
	defer clientMu.Unlock()
	if globalClient != nil {
		_ = globalClient.Close()
	}
	clientOnce = sync.Once{}
	globalClient = nil
	clientErr = nil
}

// NewClient creates a new charm client with the given config
func NewClient(cfg *Config) (*Client, error) {
	// Set CHARM_HOST before opening KV
	if cfg.Host != "" {
		os.Setenv("CHARM_HOST", cfg.Host)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
	}

	// Pull remote data on startup
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil // Mark as closed so GetClient knows to reinitialize
		return err
	}
	return nil
}

// Host returns the configured charm host
func (c *Client) Host() string {
	return c.config.Host
}

// syncIfEnabled pushes a write to the cloud, or marks the batch dirty. Callers hold mu.
func (c *Client) syncIfEnabled() {
	if !c.config.AutoSync {
		return
	}
	if c.batchDepth > 0 {
		c.dirty = true
		return
	}
	_ = c.kv.Sync()
}

// Batch runs fn with auto-sync suspended and syncs once afterwards if fn wrote
// anything. An ingest or delete touches many keys; one sync covers them all.
func (c *Client) Batch(fn func() error) error {
	c.mu.Lock()
	c.batchDepth++
	c.mu.Unlock()

	err := fn()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchDepth--
	if c.batchDepth == 0 && c.dirty {
		c.dirty = false
		if c.kv != nil {
			if syncErr := c.kv.Sync(); syncErr != nil && err == nil {
				err = fmt.Errorf("failed to sync batch: %w", syncErr)
			}
		}
	}
	return err
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Set stores a value with the given key
func (c *Client) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	c.syncIfEnabled()
	return nil
}

// Get retrieves a value by key, returning nil if the key does not exist
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Delete removes a key
func (c *Client) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	c.syncIfEnabled()
	return nil
}

// ListKeys returns all keys with the given prefix
func (c *Client) ListKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		keyStr := string(key)
		if strings.HasPrefix(keyStr, prefix) {
			result = append(result, keyStr)
		}
	}
	return result, nil
}

// Stats counts documents, chunks and embeddings by key prefix
func (c *Client) Stats() (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list keys: %w", err)
	}
	return countKeys(keys), nil
}

func countKeys(keys [][]byte) Stats {
	var st Stats
	for _, key := range keys {
		k := string(key)
		switch {
		case strings.HasPrefix(k, DocumentPrefix):
			st.Documents++
		case strings.HasPrefix(k, ChunkPrefix):
			st.Chunks++
		case strings.HasPrefix(k, EmbeddingPrefix):
			st.Embeddings++
		}
	}
	return st
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.kv.Sync()
}

// Reset wipes the local copy of the knowledge base
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.kv.Reset()
}

// GetAuthorizedKeys lists the SSH keys linked to this account
func (c *Client) GetAuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

// DocumentKey generates a key for a Document
func DocumentKey(documentID string) string {
	return DocumentPrefix + documentID
}

// ChunkKey generates a key for a Chunk
func ChunkKey(chunkID string) string {
	return ChunkPrefix + chunkID
}

// EmbeddingKey generates a key for an Embedding
func EmbeddingKey(chunkID string) string {
	return EmbeddingPrefix + chunkID
}
