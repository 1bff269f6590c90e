package fs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// Extractor turns a file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Loader reads every matching file under a root directory as a document.
type Loader struct {
	root      string
	walker    port.FileWalker
	extractor Extractor
}

func NewLoader(root string, walker port.FileWalker, extractor Extractor) *Loader {
	return &Loader{
		root:      root,
		walker:    walker,
		extractor: extractor,
	}
}

// Load returns the documents in walk order. Any unreadable file aborts the
// whole load.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	files, err := l.walker.Walk(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := l.extractor.Extract(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file.RelPath, err)
		}

		docs = append(docs, domain.Document{
			ID:           DocumentID(file.RelPath),
			Title:        DocumentTitle(file.RelPath),
			Content:      content,
			FilePath:     file.Path,
			LastModified: time.Unix(0, file.ModTime),
		})
	}
	return docs, nil
}

// DocumentID derives a stable identifier from the relative path. The path is
// kept whole, extension included, so two files never share an ID:
// "faq.md" and "faq.txt" stay distinct, as do "guides/x.md" and
// "guides-x.md".
func DocumentID(relPath string) string {
	return filepath.ToSlash(relPath)
}

// DocumentTitle derives a display title from the file name:
// "guides/pricing_and-plans.docx" becomes "pricing and plans".
func DocumentTitle(relPath string) string {
	base := filepath.Base(filepath.FromSlash(relPath))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("-", " ", "_", " ").Replace(base)
}
