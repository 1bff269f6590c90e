package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"kbrag/config"
	"kbrag/internal/adapter/cache"
	"kbrag/internal/adapter/chunker"
	"kbrag/internal/adapter/embedding"
	"kbrag/internal/adapter/events"
	"kbrag/internal/adapter/extract"
	"kbrag/internal/adapter/fs"
	"kbrag/internal/adapter/retriever"
	"kbrag/internal/adapter/store"
	"kbrag/internal/domain"
	"kbrag/internal/port"
	"kbrag/internal/usecase"
)

// cacheBackend is a cache store the CLI can also inspect and clear.
type cacheBackend interface {
	port.CacheStore
	Path() string
	Clear() error
}

// openCache opens the configured cache backend. The caller closes it when it
// implements io.Closer.
func openCache(cfg *config.Config, root string) (cacheBackend, error) {
	switch cfg.Cache.Backend {
	case config.BackendJSON:
		return store.NewJSONFileStore(cfg.CachePath(root)), nil
	case config.BackendBolt:
		st, err := store.NewBoltStore(cfg.CachePath(root))
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return st, nil
	case config.BackendNone:
		return store.NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}

// stack is the wired knowledge base for one command invocation.
type stack struct {
	store    *usecase.VectorStore
	embedder port.Embedder
	cache    cacheBackend
	stats    *events.Stats
}

// buildStack wires documents, chunker, embedder and cache from cfg. Extra
// observers receive initialization events next to the log observer.
func buildStack(cfg *config.Config, root string, log zerolog.Logger, observers ...port.Observer) (*stack, error) {
	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	chk, err := chunker.NewWordChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	cacheStore, err := openCache(cfg, root)
	if err != nil {
		return nil, err
	}

	walker := fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes)
	loader := fs.NewLoader(cfg.DocumentsDir(root), walker, extract.NewRegistry())

	stats := &events.Stats{}
	observer := events.Multi{events.NewLogObserver(log), stats}
	observer = append(observer, observers...)

	vs := usecase.NewVectorStore(loader, chk, emb, cacheStore, usecase.VectorStoreOptions{
		Concurrency:  cfg.Embedding.Concurrency,
		Partial:      usecase.PartialPolicy(cfg.Cache.PartialDocuments),
		PruneMissing: cfg.Cache.PruneMissing,
		Observer:     observer,
	})

	return &stack{
		store:    vs,
		embedder: emb,
		cache:    cacheStore,
		stats:    stats,
	}, nil
}

func (s *stack) Close() error {
	return s.store.Close()
}

// retriever builds the query side: a cached query embedder over the same
// provider, optionally followed by MMR reranking.
func (s *stack) retriever(cfg *config.Config) (*usecase.RetrieveUseCase, *cache.QueryCache) {
	qc := cache.NewQueryCache(cfg.Retrieve.QueryCacheSize, time.Duration(cfg.Retrieve.QueryCacheTTLSecs)*time.Second)
	uc := usecase.NewRetrieveUseCase(
		s.store,
		cache.NewCachedEmbedder(s.embedder, qc),
		cfg.Retrieve.AutoInitialize,
		cfg.Retrieve.MinScore,
	)
	if cfg.Retrieve.MMRLambda > 0 || cfg.Retrieve.DedupSimilarity > 0 {
		lambda := cfg.Retrieve.MMRLambda
		if lambda == 0 {
			lambda = 1
		}
		uc.WithReranker(retriever.NewMMRReranker(lambda, cfg.Retrieve.DedupSimilarity))
	}
	return uc, qc
}

// initializeAndRetrieve readies the store then runs one query.
func initializeAndRetrieve(ctx context.Context, s *stack, uc *usecase.RetrieveUseCase, query string, topK int) ([]domain.ScoredChunk, error) {
	if _, err := s.store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	results, err := uc.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return results, nil
}
