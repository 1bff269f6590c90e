package domain

import "time"

// Document is a source text loaded from the documents directory.
type Document struct {
	ID           string
	Title        string
	Content      string
	FilePath     string
	LastModified time.Time
}

type ChunkMetadata struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	ChunkIndex int    `json:"chunkIndex"`
}

// Chunk is a contiguous word range of a document's content.
type Chunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// EmbeddedChunk is a chunk together with its embedding vector. All chunks held
// by one store share the same vector length.
type EmbeddedChunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding"`
	Metadata  ChunkMetadata `json:"metadata"`
}

func NewEmbeddedChunk(chunk Chunk, embedding []float32) EmbeddedChunk {
	return EmbeddedChunk{
		ID:        chunk.ID,
		Content:   chunk.Content,
		Embedding: embedding,
		Metadata:  chunk.Metadata,
	}
}

type ScoredChunk struct {
	Chunk      EmbeddedChunk
	Similarity float64
}

// CacheEntry holds the embedded chunks computed for one document file. The
// entry can be reused while LastModified is not older than the file.
type CacheEntry struct {
	LastModified   time.Time       `json:"lastModified"`
	EmbeddedChunks []EmbeddedChunk `json:"embeddedChunks"`
}

// Cache maps a document file path to its cache entry.
type Cache map[string]CacheEntry

// Source is the shape handed to the chat layer for each retrieved chunk.
type Source struct {
	Content    string         `json:"content"`
	Metadata   SourceMetadata `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

type SourceMetadata struct {
	Title string `json:"title"`
}
