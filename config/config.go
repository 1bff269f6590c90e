package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the knowledge base.
type Config struct {
	Documents DocumentsConfig `yaml:"documents"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DocumentsConfig controls which files are loaded as documents.
type DocumentsConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ChunkingConfig holds word window sizes.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // "openai", "mock"
	Model             string  `yaml:"model"`
	APIKeyEnv         string  `yaml:"api_key_env"` // Environment variable for API key
	BaseURL           string  `yaml:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Dimension         int     `yaml:"dimension"`           // mock provider only
}

// CacheConfig holds embedding cache configuration.
type CacheConfig struct {
	Backend          string `yaml:"backend"` // "json", "bolt", "none"
	Path             string `yaml:"path"`
	PartialDocuments string `yaml:"partial_documents"` // "skip", "keep"
	PruneMissing     bool   `yaml:"prune_missing"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK              int     `yaml:"top_k"`
	MinScore          float64 `yaml:"min_score"` // Filter results below this score (0 = disabled)
	AutoInitialize    bool    `yaml:"auto_initialize"`
	QueryCacheSize    int     `yaml:"query_cache_size"`
	QueryCacheTTLSecs int     `yaml:"query_cache_ttl_secs"`
	MMRLambda         float64 `yaml:"mmr_lambda"`       // 0 = plain similarity ranking
	DedupSimilarity   float64 `yaml:"dedup_similarity"` // Drop results this close to a better one (0 = disabled)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json"
}

const (
	BackendJSON = "json"
	BackendBolt = "bolt"
	BackendNone = "none"

	PartialSkip = "skip"
	PartialKeep = "keep"

	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Dir:      filepath.Join("data", "documents"),
			Includes: []string{"**/*.docx", "**/*.md", "**/*.txt", "**/*.pdf"},
			Excludes: []string{"**/.git/**", "**/~$*"},
		},
		Chunking: ChunkingConfig{
			ChunkSize: 500,
			Overlap:   50,
		},
		Embedding: EmbeddingConfig{
			Provider:    ProviderOpenAI,
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			BaseURL:     "https://api.openai.com/v1",
			TimeoutSecs: 60,
			Concurrency: 1,
			Dimension:   256,
		},
		Cache: CacheConfig{
			Backend:          BackendJSON,
			Path:             filepath.Join(os.TempDir(), "embeddings-cache.json"),
			PartialDocuments: PartialSkip,
			PruneMissing:     true,
		},
		Retrieve: RetrieveConfig{
			TopK:              3,
			AutoInitialize:    true,
			QueryCacheSize:    128,
			QueryCacheTTLSecs: 600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings that would make indexing hang or misbehave.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.ChunkSize <= c.Chunking.Overlap {
		return fmt.Errorf("chunking.chunk_size (%d) must be greater than chunking.overlap (%d)",
			c.Chunking.ChunkSize, c.Chunking.Overlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		return fmt.Errorf("retrieve.mmr_lambda must be between 0 and 1, got %g", c.Retrieve.MMRLambda)
	}
	if c.Retrieve.DedupSimilarity < 0 || c.Retrieve.DedupSimilarity > 1 {
		return fmt.Errorf("retrieve.dedup_similarity must be between 0 and 1, got %g", c.Retrieve.DedupSimilarity)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	if c.Embedding.Provider == ProviderMock && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive for the mock provider")
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative")
	}

	switch c.Cache.Backend {
	case BackendJSON, BackendBolt, BackendNone:
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.Backend != BackendNone && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required for the %s backend", c.Cache.Backend)
	}

	switch c.Cache.PartialDocuments {
	case PartialSkip, PartialKeep:
	default:
		return fmt.Errorf("unsupported cache.partial_documents policy: %s", c.Cache.PartialDocuments)
	}

	return nil
}

// DocumentsDir resolves the documents directory against root.
func (c *Config) DocumentsDir(root string) string {
	if filepath.IsAbs(c.Documents.Dir) {
		return c.Documents.Dir
	}
	return filepath.Join(root, c.Documents.Dir)
}

// CachePath resolves the cache path against root.
func (c *Config) CachePath(root string) string {
	if c.Cache.Path == "" || filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(root, c.Cache.Path)
}
