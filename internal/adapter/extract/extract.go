// Package extract turns document files into plain text, one extractor per
// file extension.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupported is returned for files whose extension has no extractor.
var ErrUnsupported = errors.New("unsupported document format")

type Extractor interface {
	Extract(path string) (string, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(path string) (string, error)

func (f ExtractorFunc) Extract(path string) (string, error) {
	return f(path)
}

type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the built-in extractors for .txt, .md,
// .docx and .pdf.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".txt", ExtractorFunc(Text))
	r.Register(".md", ExtractorFunc(Markdown))
	r.Register(".markdown", ExtractorFunc(Markdown))
	r.Register(".docx", ExtractorFunc(Docx))
	r.Register(".pdf", ExtractorFunc(PDF))
	return r
}

// Register binds ext (with or without the leading dot) to e, replacing any
// previous binding.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[normalizeExt(ext)] = e
}

func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	return ok
}

func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) Extract(path string) (string, error) {
	ext := normalizeExt(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	text, err := e.Extract(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
