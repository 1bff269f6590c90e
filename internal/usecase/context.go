package usecase

import (
	"fmt"
	"strings"

	"kbrag/internal/domain"
)

const contextSeparator = "\n\n---\n\n"

// BuildContext renders retrieved chunks as the prompt context handed to a
// chat model, best match first.
func BuildContext(results []domain.ScoredChunk) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s", r.Chunk.Metadata.Title, r.Chunk.Content))
	}
	return strings.Join(blocks, contextSeparator)
}

// Sources converts retrieved chunks to the shape returned alongside an
// answer.
func Sources(results []domain.ScoredChunk) []domain.Source {
	sources := make([]domain.Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, domain.Source{
			Content:    r.Chunk.Content,
			Metadata:   domain.SourceMetadata{Title: r.Chunk.Metadata.Title},
			Similarity: r.Similarity,
		})
	}
	return sources
}
