package embedding

import (
	"fmt"
	"time"

	"kbrag/config"
	"kbrag/internal/port"
)

// New creates the embedder selected by the configuration.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIOptions{
			APIKeyEnv:         cfg.APIKeyEnv,
			Model:             cfg.Model,
			BaseURL:           cfg.BaseURL,
			Timeout:           time.Duration(cfg.TimeoutSecs) * time.Second,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case config.ProviderMock:
		if cfg.Dimension <= 0 {
			return nil, fmt.Errorf("mock embedder needs a positive dimension, got %d", cfg.Dimension)
		}
		return NewMockEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
