package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"kbrag/internal/adapter/clock"
	"kbrag/internal/adapter/events"
	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// State is the lifecycle position of a VectorStore.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// PartialPolicy decides what happens to a document whose chunks did not all
// embed.
type PartialPolicy string

const (
	// PartialSkip leaves the document out of the cache so the next
	// initialization retries it.
	PartialSkip PartialPolicy = "skip"
	// PartialKeep caches whatever chunks succeeded.
	PartialKeep PartialPolicy = "keep"
)

// FreshnessFunc reports whether a cache entry recorded at cached can be
// reused for a document last modified at current.
type FreshnessFunc func(cached, current time.Time) bool

// CacheFresh accepts an entry that is not older than the document.
func CacheFresh(cached, current time.Time) bool {
	return !cached.Before(current)
}

type VectorStoreOptions struct {
	// Concurrency bounds parallel embedding calls within one document.
	Concurrency  int
	Partial      PartialPolicy
	PruneMissing bool
	Fresh        FreshnessFunc
	// Observer may be called from several goroutines when Concurrency > 1.
	Observer port.Observer
	Clock    port.Clock
}

// InitResult summarizes one initialization pass.
type InitResult struct {
	DocumentsCached    int
	DocumentsEmbedded  int
	DocumentsPartial   int
	ChunksEmbedded     int
	ChunksFailed       int
	EntriesPruned      int
	TotalChunks        int
	CacheSaved         bool
	AlreadyInitialized bool
	Duration           time.Duration
}

// VectorStore holds the embedded chunks of every loaded document and keeps
// the embedding cache in step with the documents directory.
type VectorStore struct {
	loader   port.DocumentLoader
	chunker  port.Chunker
	embedder port.Embedder
	cache    port.CacheStore
	opts     VectorStoreOptions

	mu     sync.RWMutex
	state  State
	chunks []domain.EmbeddedChunk

	flight singleflight.Group
}

func NewVectorStore(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	cache port.CacheStore,
	opts VectorStoreOptions,
) *VectorStore {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Partial == "" {
		opts.Partial = PartialSkip
	}
	if opts.Fresh == nil {
		opts.Fresh = CacheFresh
	}
	if opts.Observer == nil {
		opts.Observer = events.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}

	return &VectorStore{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		cache:    cache,
		opts:     opts,
		chunks:   []domain.EmbeddedChunk{},
	}
}

// Initialize loads the documents, reuses fresh cache entries, embeds the rest
// and persists the cache. It is a no-op once the store is ready. Concurrent
// callers share a single pass and its result; the pass runs with the first
// caller's context.
//
// A failure leaves the store uninitialized so Initialize can be retried.
func (s *VectorStore) Initialize(ctx context.Context) (*InitResult, error) {
	if result, ok := s.readyResult(); ok {
		return result, nil
	}

	v, err, _ := s.flight.Do("initialize", func() (any, error) {
		if result, ok := s.readyResult(); ok {
			return result, nil
		}

		s.setState(StateInitializing)

		result, chunks, err := s.initialize(ctx)
		if err != nil {
			s.setState(StateUninitialized)
			s.opts.Observer.Observe(domain.Event{Kind: domain.EventInitFailed, Err: err})
			return nil, err
		}

		s.mu.Lock()
		s.chunks = chunks
		s.state = StateReady
		s.mu.Unlock()

		s.opts.Observer.Observe(domain.Event{
			Kind:     domain.EventInitCompleted,
			Count:    result.TotalChunks,
			Duration: result.Duration,
		})
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*InitResult), nil
}

func (s *VectorStore) readyResult() (*InitResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateReady {
		return nil, false
	}
	return &InitResult{AlreadyInitialized: true, TotalChunks: len(s.chunks)}, true
}

func (s *VectorStore) initialize(ctx context.Context) (*InitResult, []domain.EmbeddedChunk, error) {
	start := s.opts.Clock.Now()

	docs, err := s.loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load documents: %w", err)
	}
	s.opts.Observer.Observe(domain.Event{Kind: domain.EventInitStarted, Total: len(docs)})

	cache, err := s.cache.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load embedding cache: %w", err)
	}
	if cache == nil {
		cache = domain.Cache{}
	}

	result := &InitResult{}
	all := make([]domain.EmbeddedChunk, 0)
	seen := make(map[string]bool, len(docs))
	produced := false
	dim := -1

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		seen[doc.FilePath] = true

		if entry, ok := cache[doc.FilePath]; ok && s.opts.Fresh(entry.LastModified, doc.LastModified) {
			if err := checkDimension(&dim, entry.EmbeddedChunks); err != nil {
				return nil, nil, fmt.Errorf("cached embeddings for %s do not match the store (clear the cache after changing the embedding model): %w", doc.FilePath, err)
			}
			all = append(all, entry.EmbeddedChunks...)
			result.DocumentsCached++
			s.opts.Observer.Observe(domain.Event{
				Kind:     domain.EventCacheHit,
				Document: doc.Title,
				Count:    len(entry.EmbeddedChunks),
			})
			continue
		}

		chunks, err := s.chunker.Chunk(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to chunk %s: %w", doc.Title, err)
		}
		s.opts.Observer.Observe(domain.Event{
			Kind:     domain.EventCacheMiss,
			Document: doc.Title,
			Total:    len(chunks),
		})

		embedded, failed, err := s.embedDocument(ctx, chunks)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to embed %s: %w", doc.Title, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if err := checkDimension(&dim, embedded); err != nil {
			return nil, nil, fmt.Errorf("embeddings for %s do not match the store (clear the cache after changing the embedding model): %w", doc.FilePath, err)
		}

		result.DocumentsEmbedded++
		result.ChunksEmbedded += len(embedded)
		result.ChunksFailed += failed
		all = append(all, embedded...)
		if len(embedded) > 0 {
			produced = true
		}

		s.opts.Observer.Observe(domain.Event{
			Kind:     domain.EventDocumentEmbedded,
			Document: doc.Title,
			Count:    len(embedded),
			Total:    len(chunks),
		})

		if failed > 0 {
			result.DocumentsPartial++
			if s.opts.Partial == PartialSkip {
				continue
			}
		}

		cache[doc.FilePath] = domain.CacheEntry{
			LastModified:   doc.LastModified.UTC(),
			EmbeddedChunks: embedded,
		}
	}

	if s.opts.PruneMissing {
		for path := range cache {
			if seen[path] {
				continue
			}
			delete(cache, path)
			result.EntriesPruned++
			s.opts.Observer.Observe(domain.Event{Kind: domain.EventCachePruned, Document: path})
		}
	}

	if produced || result.EntriesPruned > 0 {
		if err := s.cache.Save(cache); err != nil {
			return nil, nil, fmt.Errorf("failed to save embedding cache: %w", err)
		}
		result.CacheSaved = true
		s.opts.Observer.Observe(domain.Event{Kind: domain.EventCacheSaved, Count: len(cache)})
	}

	result.TotalChunks = len(all)
	result.Duration = s.opts.Clock.Now().Sub(start)
	return result, all, nil
}

// embedDocument embeds chunks with bounded parallelism. Failed chunks are
// reported and left out; the rest keep their chunk order. A configuration
// error stops the document and is returned, since no chunk can succeed.
func (s *VectorStore) embedDocument(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, int, error) {
	slots := make([]*domain.EmbeddedChunk, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			start := s.opts.Clock.Now()
			vector, err := s.embedder.Embed(gctx, chunk.Content)
			if err != nil {
				var cfgErr *domain.ConfigurationError
				if errors.As(err, &cfgErr) {
					return err
				}
				s.opts.Observer.Observe(domain.Event{
					Kind:    domain.EventChunkFailed,
					ChunkID: chunk.ID,
					Err:     err,
				})
				return nil
			}

			embedded := domain.NewEmbeddedChunk(chunk, vector)
			slots[i] = &embedded
			s.opts.Observer.Observe(domain.Event{
				Kind:     domain.EventChunkEmbedded,
				ChunkID:  chunk.ID,
				Duration: s.opts.Clock.Now().Sub(start),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))
	for _, slot := range slots {
		if slot != nil {
			embedded = append(embedded, *slot)
		}
	}
	return embedded, len(chunks) - len(embedded), nil
}

// checkDimension holds every vector to the length of the first one seen; dim
// is -1 until then.
func checkDimension(dim *int, chunks []domain.EmbeddedChunk) error {
	for _, c := range chunks {
		if *dim < 0 {
			*dim = len(c.Embedding)
			continue
		}
		if len(c.Embedding) != *dim {
			return &domain.DimensionMismatchError{Left: *dim, Right: len(c.Embedding)}
		}
	}
	return nil
}

// EmbeddedChunks returns a copy of the chunks in document-processing order.
func (s *VectorStore) EmbeddedChunks() []domain.EmbeddedChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EmbeddedChunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func (s *VectorStore) IsInitialized() bool {
	return s.State() == StateReady
}

func (s *VectorStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *VectorStore) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Close releases the cache store when it holds resources.
func (s *VectorStore) Close() error {
	if c, ok := s.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
