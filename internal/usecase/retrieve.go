package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kbrag/internal/adapter/retriever"
	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

// rerankCandidates is how many candidates per requested result the reranker
// chooses from.
const rerankCandidates = 3

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	store             *VectorStore
	retriever         *retriever.SemanticRetriever
	reranker          *retriever.MMRReranker
	autoInitialize    bool
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case. The embedder is used for
// queries only and may differ from the one the store indexes with, for
// example by adding a query cache.
func NewRetrieveUseCase(
	store *VectorStore,
	embedder port.Embedder,
	autoInitialize bool,
	minScoreThreshold float64,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		store:             store,
		retriever:         retriever.NewSemanticRetriever(embedder, store),
		autoInitialize:    autoInitialize,
		minScoreThreshold: minScoreThreshold,
	}
}

// WithReranker diversifies results with MMR.
func (u *RetrieveUseCase) WithReranker(reranker *retriever.MMRReranker) *RetrieveUseCase {
	u.reranker = reranker
	return u
}

// Retrieve returns the topK chunks most similar to the query. When the store
// is not ready it is initialized first, or domain.ErrNotReady is returned if
// auto-initialization is off.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	if !u.store.IsInitialized() {
		if !u.autoInitialize {
			return nil, domain.ErrNotReady
		}
		if _, err := u.store.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %w", err)
		}
	}

	fetchK := topK
	if u.reranker != nil {
		fetchK = topK * rerankCandidates
	}

	results, err := u.retriever.Search(ctx, query, fetchK)
	if err != nil {
		return nil, err
	}

	if u.reranker != nil {
		results, err = u.reranker.Rerank(results, topK)
		if err != nil {
			return nil, fmt.Errorf("rerank failed: %w", err)
		}
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}
	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredChunk) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Similarity >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
