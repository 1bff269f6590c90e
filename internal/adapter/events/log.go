// Package events provides observers for vector store initialization.
package events

import (
	"github.com/rs/zerolog"
	"kbrag/internal/domain"
)

// LogObserver writes every event as a structured log line.
type LogObserver struct {
	logger zerolog.Logger
}

func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Observe(e domain.Event) {
	switch e.Kind {
	case domain.EventInitStarted:
		o.logger.Info().Int("documents", e.Total).Msg("Initializing vector store")
	case domain.EventCacheHit:
		o.logger.Info().Str("document", e.Document).Int("chunks", e.Count).Msg("Loading embeddings from cache")
	case domain.EventCacheMiss:
		o.logger.Info().Str("document", e.Document).Int("chunks", e.Total).Msg("Generating new embeddings")
	case domain.EventCachePruned:
		o.logger.Info().Str("path", e.Document).Msg("Dropped cache entry for missing document")
	case domain.EventChunkEmbedded:
		o.logger.Debug().Str("chunk", e.ChunkID).Dur("latency", e.Duration).Msg("Generated embedding")
	case domain.EventChunkFailed:
		o.logger.Error().Err(e.Err).Str("chunk", e.ChunkID).Msg("Failed to generate embedding")
	case domain.EventDocumentEmbedded:
		ev := o.logger.Info()
		if e.Count < e.Total {
			ev = o.logger.Warn()
		}
		ev.Str("document", e.Document).Int("embedded", e.Count).Int("chunks", e.Total).Msg("Document embedded")
	case domain.EventCacheSaved:
		o.logger.Info().Int("entries", e.Count).Msg("Embeddings cache saved")
	case domain.EventInitCompleted:
		o.logger.Info().Int("chunks", e.Count).Dur("duration", e.Duration).Msg("Vector store initialized")
	case domain.EventInitFailed:
		o.logger.Error().Err(e.Err).Msg("Vector store initialization failed")
	default:
		o.logger.Debug().Str("kind", string(e.Kind)).Msg("event")
	}
}
