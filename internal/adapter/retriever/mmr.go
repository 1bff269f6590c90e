package retriever

import (
	"fmt"

	"kbrag/internal/domain"
)

// MMRReranker implements Maximal Marginal Relevance for result diversification.
// Overlapping windows of one document embed almost identically.
type MMRReranker struct {
	lambda   float64
	dedupSim float64
}

// NewMMRReranker creates a new MMR reranker. Candidates whose cosine
// similarity to an already selected chunk exceeds dedupSim are dropped; a
// dedupSim of 0 disables that.
func NewMMRReranker(lambda, dedupSim float64) *MMRReranker {
	return &MMRReranker{
		lambda:   lambda,
		dedupSim: dedupSim,
	}
}

// Rerank applies MMR to diversify the results.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
// The returned chunks keep their query similarity. Candidates of different
// vector lengths are an error.
func (r *MMRReranker) Rerank(candidates []domain.ScoredChunk, k int) ([]domain.ScoredChunk, error) {
	if len(candidates) == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	if k > len(candidates) {
		k = len(candidates)
	}

	// Normalize scores to [0, 1] for fair comparison
	maxScore := candidates[0].Similarity
	for _, c := range candidates {
		if c.Similarity > maxScore {
			maxScore = c.Similarity
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	selected := make([]domain.ScoredChunk, 0, k)
	remaining := make([]domain.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, candidate := range remaining {
			relevance := candidate.Similarity / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				sim, err := CosineSimilarity(candidate.Chunk.Embedding, sel.Chunk.Embedding)
				if err != nil {
					return nil, fmt.Errorf("failed to compare %s with %s: %w", candidate.Chunk.ID, sel.Chunk.ID, err)
				}
				if sim > maxSim {
					maxSim = sim
				}
			}

			if r.dedupSim > 0 && maxSim > r.dedupSim {
				continue
			}

			mmr := r.lambda*relevance - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// Everything left duplicates a selected chunk.
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected, nil
}
