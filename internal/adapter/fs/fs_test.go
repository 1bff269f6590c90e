package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type stubExtractor struct {
	fail map[string]error
}

func (s stubExtractor) Extract(path string) (string, error) {
	if err, ok := s.fail[filepath.Base(path)]; ok {
		return "", err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func mkfile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWalker_IncludeExcludeSorted(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "zeta.md", "z")
	mkfile(t, root, "alpha.txt", "a")
	mkfile(t, root, "guides/setup.docx", "s")
	mkfile(t, root, "guides/~$setup.docx", "lock")
	mkfile(t, root, ".git/config.txt", "x")
	mkfile(t, root, "image.png", "p")

	w := NewWalker(
		[]string{"**/*.md", "**/*.txt", "**/*.docx"},
		[]string{"**/.git/**", ".git/**", "**/~$*"},
	)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"alpha.txt", "guides/setup.docx", "zeta.md"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %+v", len(want), len(files), files)
	}
	for i, rel := range want {
		if files[i].RelPath != rel {
			t.Errorf("position %d: expected %s, got %s", i, rel, files[i].RelPath)
		}
		if !filepath.IsAbs(files[i].Path) {
			t.Errorf("expected absolute path, got %s", files[i].Path)
		}
	}
}

func TestWalker_MissingRoot(t *testing.T) {
	w := NewWalker(nil, nil)
	if _, err := w.Walk(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing documents directory")
	}
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	path := mkfile(t, root, "guides/pricing_and-plans.txt", "Starter plan")
	mtime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(root, NewWalker([]string{"**/*.txt"}, nil), stubExtractor{})
	docs, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	doc := docs[0]
	if doc.ID != "guides/pricing_and-plans.docx" {
		t.Errorf("unexpected ID %q", doc.ID)
	}
	if doc.Title != "pricing and plans" {
		t.Errorf("unexpected title %q", doc.Title)
	}
	if doc.Content != "Starter plan" {
		t.Errorf("unexpected content %q", doc.Content)
	}
	if !filepath.IsAbs(doc.FilePath) || filepath.Base(doc.FilePath) != "pricing_and-plans.txt" {
		t.Errorf("unexpected file path %q", doc.FilePath)
	}
	if !doc.LastModified.Equal(mtime) {
		t.Errorf("expected mtime %v, got %v", mtime, doc.LastModified)
	}
}

func TestLoader_ExtractFailureAborts(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.txt", "fine")
	mkfile(t, root, "b.txt", "broken")

	boom := errors.New("boom")
	loader := NewLoader(root, NewWalker(nil, nil), stubExtractor{fail: map[string]error{"b.txt": boom}})

	_, err := loader.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected extraction error, got %v", err)
	}
}

func TestLoader_Cancelled(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(root, NewWalker(nil, nil), stubExtractor{}).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDocumentIDAndTitle(t *testing.T) {
	tests := []struct {
		rel   string
		id    string
		title string
	}{
		{"overview.docx", "overview.docx", "overview"},
		{"company-overview.docx", "company-overview.docx", "company overview"},
		{"a/b/tech_docs.md", "a/b/tech_docs.md", "tech docs"},
		{"notes", "notes", "notes"},
	}

	for _, tt := range tests {
		if got := DocumentID(tt.rel); got != tt.id {
			t.Errorf("DocumentID(%q) = %q, want %q", tt.rel, got, tt.id)
		}
		if got := DocumentTitle(tt.rel); got != tt.title {
			t.Errorf("DocumentTitle(%q) = %q, want %q", tt.rel, got, tt.title)
		}
	}
}

func TestDocumentIDUnique(t *testing.T) {
	pairs := [][2]string{
		{"faq.md", "faq.txt"},
		{"guides/x.md", "guides-x.md"},
		{"a/b.md", "a-b.md"},
	}
	for _, p := range pairs {
		if a, b := DocumentID(p[0]), DocumentID(p[1]); a == b {
			t.Errorf("DocumentID(%q) and DocumentID(%q) collide: %q", p[0], p[1], a)
		}
	}
}
