// ABOUTME: Centralized configuration for the health copilot
// ABOUTME: Defaults, then an optional TOML file, then environment variables, then validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

const (
	// BackendSQLite stores the knowledge base in a local SQLite file
	BackendSQLite = "sqlite"
	// BackendCharm stores the knowledge base in a synced Charm KV database
	BackendCharm = "charm"

	// ProviderOpenAI embeds with the OpenAI embeddings API
	ProviderOpenAI = "openai"
	// ProviderOllama embeds with a local Ollama server
	ProviderOllama = "ollama"

	// DefaultOpenAIEmbeddingModel is the embedding model used with ProviderOpenAI
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	// DefaultOllamaEmbeddingModel replaces the OpenAI default under ProviderOllama
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
)

// modelDimensions is the native vector length of well-known embedding models
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
}

// ModelDimension returns the native dimension of model. Ollama tags such as
// ":latest" are ignored.
func ModelDimension(model string) (int, bool) {
	name, _, _ := strings.Cut(model, ":")
	dim, ok := modelDimensions[name]
	return dim, ok
}

// Config holds all configuration for the copilot
type Config struct {
	// Storage settings
	StorageBackend string `toml:"storage_backend"`
	DBPath         string `toml:"db_path"`

	// Charm settings
	CharmHost   string `toml:"charm_host"`
	CharmDBName string `toml:"charm_db"`
	AutoSync    bool   `toml:"charm_auto_sync"`

	// Provider settings
	OpenAIKey         string        `toml:"-"`
	EmbeddingProvider string        `toml:"embedding_provider"`
	OllamaHost        string        `toml:"ollama_host"`
	ChatModel         string        `toml:"chat_model"`
	EmbeddingModel    string        `toml:"embedding_model"`
	Timeout           time.Duration `toml:"-"`
	MaxRetries        int           `toml:"max_retries"`
	RetryDelay        time.Duration `toml:"-"`
	RateLimit         float64       `toml:"rate_limit"`

	// Embedding settings
	EmbeddingDimension int `toml:"embedding_dimension"`
	EmbeddingMaxInput  int `toml:"embedding_max_input"`

	// Retrieval settings
	ChunkSize         int     `toml:"chunk_size"`
	ChunkOverlap      int     `toml:"chunk_overlap"`
	SearchLimit       int     `toml:"search_limit"`
	SearchThreshold   float64 `toml:"search_threshold"`
	ContextThreshold  float64 `toml:"context_threshold"`
	ContextCandidates int     `toml:"context_candidates"`
	ContextMaxTokens  int     `toml:"context_max_tokens"`

	// dimensionSet records an explicit EMBEDDING_DIMENSION from file or env
	dimensionSet bool
}

// fileExtras carries settings the Config fields cannot express directly:
// durations as strings since TOML has no duration type, and whether the
// dimension was present at all
type fileExtras struct {
	Timeout            string `toml:"timeout"`
	RetryDelay         string `toml:"retry_delay"`
	EmbeddingDimension *int   `toml:"embedding_dimension"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		StorageBackend:     BackendSQLite,
		CharmHost:          "cloud.charm.sh",
		CharmDBName:        "health-copilot",
		AutoSync:           true,
		EmbeddingProvider:  ProviderOpenAI,
		OllamaHost:         "http://localhost:11434",
		ChatModel:          "gpt-4o-mini",
		EmbeddingModel:     DefaultOpenAIEmbeddingModel,
		Timeout:            30 * time.Second,
		MaxRetries:         3,
		RetryDelay:         2 * time.Second,
		RateLimit:          5,
		EmbeddingDimension: 1536,
		EmbeddingMaxInput:  8192,
		ChunkSize:          1000,
		ChunkOverlap:       200,
		SearchLimit:        5,
		SearchThreshold:    0.7,
		ContextThreshold:   0.5,
		ContextCandidates:  10,
		ContextMaxTokens:   2000,
	}
}

// DefaultConfigFile returns the TOML overlay location under XDG_CONFIG_HOME
func DefaultConfigFile() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "health-copilot", "config.toml")
	}
	return filepath.Join(xdg.ConfigHome, "health-copilot", "config.toml")
}

// Load reads configuration from the default config file and environment variables
func Load() (*Config, error) {
	return LoadFile(getEnv("COPILOT_CONFIG", DefaultConfigFile()))
}

// LoadFile reads configuration from path (if it exists) and environment
// variables. Environment variables win over the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyModelDefaults()

	return cfg, cfg.Validate()
}

// applyModelDefaults swaps the OpenAI default model for the Ollama one under
// the ollama provider, and sizes vectors to the model unless a dimension was
// set explicitly
func (c *Config) applyModelDefaults() {
	if c.EmbeddingProvider == ProviderOllama && (c.EmbeddingModel == "" || c.EmbeddingModel == DefaultOpenAIEmbeddingModel) {
		c.EmbeddingModel = DefaultOllamaEmbeddingModel
	}
	if c.dimensionSet {
		return
	}
	if dim, ok := ModelDimension(c.EmbeddingModel); ok {
		c.EmbeddingDimension = dim
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	var extras fileExtras
	if err := toml.Unmarshal(data, &extras); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if extras.EmbeddingDimension != nil {
		c.dimensionSet = true
	}
	if extras.Timeout != "" {
		d, err := time.ParseDuration(extras.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in %s: %w", path, err)
		}
		c.Timeout = d
	}
	if extras.RetryDelay != "" {
		d, err := time.ParseDuration(extras.RetryDelay)
		if err != nil {
			return fmt.Errorf("invalid retry_delay in %s: %w", path, err)
		}
		c.RetryDelay = d
	}

	return nil
}

func (c *Config) applyEnv() {
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.DBPath = getEnv("COPILOT_DB_PATH", c.DBPath)

	c.CharmHost = getEnv("CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv("CHARM_DB", c.CharmDBName)
	c.AutoSync = getEnvBool("CHARM_AUTO_SYNC", c.AutoSync)

	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.EmbeddingProvider = getEnv("EMBEDDING_PROVIDER", c.EmbeddingProvider)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.ChatModel = getEnv("COPILOT_CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("COPILOT_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Timeout = getEnvDuration("OPENAI_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.RateLimit = getEnvFloat("OPENAI_RATE_LIMIT", c.RateLimit)

	if v := getEnvInt("EMBEDDING_DIMENSION", 0); v != 0 {
		c.EmbeddingDimension = v
		c.dimensionSet = true
	}
	c.EmbeddingMaxInput = getEnvInt("EMBEDDING_MAX_INPUT", c.EmbeddingMaxInput)

	c.ChunkSize = getEnvInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.SearchLimit = getEnvInt("SEARCH_LIMIT", c.SearchLimit)
	c.SearchThreshold = getEnvFloat("SEARCH_THRESHOLD", c.SearchThreshold)
	c.ContextThreshold = getEnvFloat("CONTEXT_THRESHOLD", c.ContextThreshold)
	c.ContextCandidates = getEnvInt("CONTEXT_CANDIDATES", c.ContextCandidates)
	c.ContextMaxTokens = getEnvInt("CONTEXT_MAX_TOKENS", c.ContextMaxTokens)
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.StorageBackend != BackendSQLite && c.StorageBackend != BackendCharm {
		return fmt.Errorf("STORAGE_BACKEND must be %s or %s, got %q", BackendSQLite, BackendCharm, c.StorageBackend)
	}
	if c.EmbeddingProvider != ProviderOpenAI && c.EmbeddingProvider != ProviderOllama {
		return fmt.Errorf("EMBEDDING_PROVIDER must be %s or %s, got %q", ProviderOpenAI, ProviderOllama, c.EmbeddingProvider)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("OPENAI_RATE_LIMIT must be positive, got %f", c.RateLimit)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.EmbeddingMaxInput <= 0 {
		return fmt.Errorf("EMBEDDING_MAX_INPUT must be positive, got %d", c.EmbeddingMaxInput)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be 0 to CHUNK_SIZE-1, got %d", c.ChunkOverlap)
	}
	if c.SearchLimit <= 0 || c.ContextCandidates <= 0 || c.ContextMaxTokens <= 0 {
		return fmt.Errorf("SEARCH_LIMIT, CONTEXT_CANDIDATES and CONTEXT_MAX_TOKENS must be positive")
	}
	if c.SearchThreshold < -1 || c.SearchThreshold > 1 {
		return fmt.Errorf("SEARCH_THRESHOLD must be -1 to 1, got %f", c.SearchThreshold)
	}
	if c.ContextThreshold < -1 || c.ContextThreshold > 1 {
		return fmt.Errorf("CONTEXT_THRESHOLD must be -1 to 1, got %f", c.ContextThreshold)
	}
	return nil
}

// HasProviderCredential reports whether real embeddings can be requested
func (c *Config) HasProviderCredential() bool {
	if c.EmbeddingProvider == ProviderOllama {
		return c.OllamaHost != ""
	}
	return c.OpenAIKey != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
