package events

import (
	"sync/atomic"
	"time"

	"kbrag/internal/domain"
)

// Stats counts initialization events. It is safe for concurrent use.
type Stats struct {
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	pruned         atomic.Int64
	chunksEmbedded atomic.Int64
	chunksFailed   atomic.Int64
	saves          atomic.Int64
	embedLatency   atomic.Int64
}

type StatsSnapshot struct {
	CacheHits      int64
	CacheMisses    int64
	Pruned         int64
	ChunksEmbedded int64
	ChunksFailed   int64
	Saves          int64
	EmbedLatency   time.Duration
}

// MeanLatency is the average provider latency per embedded chunk.
func (s StatsSnapshot) MeanLatency() time.Duration {
	if s.ChunksEmbedded == 0 {
		return 0
	}
	return s.EmbedLatency / time.Duration(s.ChunksEmbedded)
}

func (s *Stats) Observe(e domain.Event) {
	switch e.Kind {
	case domain.EventCacheHit:
		s.cacheHits.Add(1)
	case domain.EventCacheMiss:
		s.cacheMisses.Add(1)
	case domain.EventCachePruned:
		s.pruned.Add(1)
	case domain.EventChunkEmbedded:
		s.chunksEmbedded.Add(1)
		s.embedLatency.Add(int64(e.Duration))
	case domain.EventChunkFailed:
		s.chunksFailed.Add(1)
	case domain.EventCacheSaved:
		s.saves.Add(1)
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		CacheHits:      s.cacheHits.Load(),
		CacheMisses:    s.cacheMisses.Load(),
		Pruned:         s.pruned.Load(),
		ChunksEmbedded: s.chunksEmbedded.Load(),
		ChunksFailed:   s.chunksFailed.Load(),
		Saves:          s.saves.Load(),
		EmbedLatency:   time.Duration(s.embedLatency.Load()),
	}
}
