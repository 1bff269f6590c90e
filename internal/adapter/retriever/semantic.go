package retriever

import (
	"context"
	"fmt"

	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// ChunkSource exposes the embedded chunks to rank against.
type ChunkSource interface {
	EmbeddedChunks() []domain.EmbeddedChunk
}

type SemanticRetriever struct {
	embedder port.Embedder
	source   ChunkSource
}

func NewSemanticRetriever(embedder port.Embedder, source ChunkSource) *SemanticRetriever {
	return &SemanticRetriever{
		embedder: embedder,
		source:   source,
	}
}

// Search embeds the query and ranks the stored chunks against it. A failure
// to embed the query is returned to the caller as is.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if r.embedder == nil || r.source == nil {
		return nil, fmt.Errorf("semantic search not available: embeddings not configured")
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := TopK(vector, r.source.EmbeddedChunks(), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
