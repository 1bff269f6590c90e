package usecase

import (
	"encoding/json"
	"testing"

	"kbrag/internal/domain"
)

func scored(title, content string, sim float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.EmbeddedChunk{
			ID:       title + "-0",
			Content:  content,
			Metadata: domain.ChunkMetadata{DocumentID: title, Title: title},
		},
		Similarity: sim,
	}
}

func TestBuildContext(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("Pricing", "Starter plan costs 5000.", 0.9),
		scored("Support", "Email support@example.com.", 0.7),
	}

	got := BuildContext(results)
	want := "Document: Pricing\nContent: Starter plan costs 5000.\n\n---\n\nDocument: Support\nContent: Email support@example.com."
	if got != want {
		t.Errorf("unexpected context:\n%s\nwant:\n%s", got, want)
	}

	if BuildContext(nil) != "" {
		t.Error("expected empty context for no results")
	}
}

func TestSources(t *testing.T) {
	sources := Sources([]domain.ScoredChunk{scored("Pricing", "Starter plan.", 0.875)})

	data, err := json.Marshal(sources)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"content":"Starter plan.","metadata":{"title":"Pricing"},"similarity":0.875}]`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	empty, _ := json.Marshal(Sources(nil))
	if string(empty) != "[]" {
		t.Errorf("expected empty JSON array, got %s", empty)
	}
}
