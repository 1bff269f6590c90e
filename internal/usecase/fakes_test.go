package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"kbrag/internal/domain"
)

var errProvider = errors.New("provider unavailable")

type fakeLoader struct {
	docs  []domain.Document
	err   error
	calls int
}

func (l *fakeLoader) Load(ctx context.Context) ([]domain.Document, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	out := make([]domain.Document, len(l.docs))
	copy(out, l.docs)
	return out, nil
}

// fakeEmbedder returns a vector derived from the text so identical texts get
// identical vectors. Texts containing a word listed in failOn fail.
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	texts  []string
	failOn []string
	gate   chan struct{}
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	e.calls++
	e.texts = append(e.texts, text)
	e.mu.Unlock()

	for _, word := range e.failOn {
		if strings.Contains(text, word) {
			return nil, &domain.EmbeddingError{Cause: errProvider}
		}
	}
	return vectorFor(text), nil
}

func (e *fakeEmbedder) ModelName() string { return "fake" }

func (e *fakeEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// vectorFor maps text onto three axes by keyword so tests can steer ranking.
func vectorFor(text string) []float32 {
	v := []float32{0.01, 0.01, 0.01}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		switch {
		case strings.HasPrefix(w, "pric"), strings.HasPrefix(w, "plan"):
			v[0]++
		case strings.HasPrefix(w, "support"), strings.HasPrefix(w, "email"):
			v[1]++
		case strings.HasPrefix(w, "api"), strings.HasPrefix(w, "endpoint"):
			v[2]++
		}
	}
	return v
}

type memCache struct {
	mu      sync.Mutex
	data    domain.Cache
	loadErr error
	saveErr error
	saves   int
	closed  bool
}

func (m *memCache) Load() (domain.Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := domain.Cache{}
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *memCache) Save(cache domain.Cache) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = domain.Cache{}
	for k, v := range cache {
		m.data[k] = v
	}
	return nil
}

func (m *memCache) Close() error {
	m.closed = true
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Observe(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(kind domain.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func doc(id, title, content string, modified time.Time) domain.Document {
	return domain.Document{
		ID:           id,
		Title:        title,
		Content:      content,
		FilePath:     "/docs/" + id + ".docx",
		LastModified: modified,
	}
}
