package retriever

import (
	"math"
	"sort"

	"kbrag/internal/domain"
)

// CosineSimilarity returns the cosine of the angle between a and b. A zero
// vector has similarity 0 with everything, including another zero vector.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Left: len(a), Right: len(b)}
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push parallel vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// TopK scores every chunk against query and returns the k most similar,
// highest first. Chunks with equal similarity keep their input order.
func TopK(query []float32, chunks []domain.EmbeddedChunk, k int) ([]domain.ScoredChunk, error) {
	if len(chunks) == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		sim, err := CosineSimilarity(query, chunk.Embedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:      chunk,
			Similarity: sim,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}
