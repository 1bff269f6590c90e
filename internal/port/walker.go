package port

import (
	"context"

	"kbrag/internal/domain"
)

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	RelPath string
	ModTime int64
	Size    int64
}

// DocumentLoader produces the document collection for one initialization.
type DocumentLoader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}
