package domain

import "time"

type EventKind string

const (
	EventInitStarted      EventKind = "init_started"
	EventCacheHit         EventKind = "cache_hit"
	EventCacheMiss        EventKind = "cache_miss"
	EventCachePruned      EventKind = "cache_pruned"
	EventChunkEmbedded    EventKind = "chunk_embedded"
	EventChunkFailed      EventKind = "chunk_failed"
	EventDocumentEmbedded EventKind = "document_embedded"
	EventCacheSaved       EventKind = "cache_saved"
	EventInitCompleted    EventKind = "init_completed"
	EventInitFailed       EventKind = "init_failed"
)

// Event is emitted by the vector store while it initializes. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Document string
	ChunkID  string
	Count    int
	Total    int
	Duration time.Duration
	Err      error
}
