package chunker

import (
	"fmt"
	"strings"

	"kbrag/internal/domain"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// WordChunker splits documents into overlapping windows of words.
type WordChunker struct {
	chunkSize int
	overlap   int
}

func NewWordChunker(chunkSize, overlap int) (*WordChunker, error) {
	if err := checkWindow(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &WordChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

func (c *WordChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	texts, err := SplitWords(doc.Content, c.chunkSize, c.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:      chunkID(doc.ID, i),
			Content: text,
			Metadata: domain.ChunkMetadata{
				DocumentID: doc.ID,
				Title:      doc.Title,
				ChunkIndex: i,
			},
		})
	}
	return chunks, nil
}

// SplitWords splits text on runs of whitespace and returns windows of
// chunkSize words, each starting chunkSize-overlap words after the previous
// one. Windows are joined with single spaces. No window is produced once a
// previous window already reached the last word.
func SplitWords(text string, chunkSize, overlap int) ([]string, error) {
	if err := checkWindow(chunkSize, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	step := chunkSize - overlap

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[start:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}

func checkWindow(chunkSize, overlap int) error {
	if chunkSize <= 0 || overlap < 0 || chunkSize <= overlap {
		return fmt.Errorf("%w (chunk size %d, overlap %d)", domain.ErrInvalidWindow, chunkSize, overlap)
	}
	return nil
}

func chunkID(docID string, index int) string {
	return fmt.Sprintf("%s-%d", docID, index)
}
