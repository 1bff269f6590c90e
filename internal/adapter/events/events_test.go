package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"kbrag/internal/domain"
)

func TestStats_Counts(t *testing.T) {
	var s Stats
	events := []domain.Event{
		{Kind: domain.EventInitStarted, Total: 3},
		{Kind: domain.EventCacheHit, Document: "a"},
		{Kind: domain.EventCacheMiss, Document: "b"},
		{Kind: domain.EventChunkEmbedded, ChunkID: "b-0", Duration: 10 * time.Millisecond},
		{Kind: domain.EventChunkEmbedded, ChunkID: "b-1", Duration: 30 * time.Millisecond},
		{Kind: domain.EventChunkFailed, ChunkID: "b-2", Err: errors.New("x")},
		{Kind: domain.EventCachePruned, Document: "/gone.docx"},
		{Kind: domain.EventCacheSaved, Count: 2},
	}
	for _, e := range events {
		s.Observe(e)
	}

	snap := s.Snapshot()
	if snap.CacheHits != 1 || snap.CacheMisses != 1 || snap.Pruned != 1 {
		t.Errorf("unexpected cache counters %+v", snap)
	}
	if snap.ChunksEmbedded != 2 || snap.ChunksFailed != 1 || snap.Saves != 1 {
		t.Errorf("unexpected chunk counters %+v", snap)
	}
	if snap.EmbedLatency != 40*time.Millisecond {
		t.Errorf("expected 40ms total latency, got %v", snap.EmbedLatency)
	}
	if snap.MeanLatency() != 20*time.Millisecond {
		t.Errorf("expected 20ms mean latency, got %v", snap.MeanLatency())
	}
}

func TestStats_Concurrent(t *testing.T) {
	var s Stats
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Observe(domain.Event{Kind: domain.EventChunkEmbedded, Duration: time.Millisecond})
		}()
	}
	wg.Wait()

	if got := s.Snapshot().ChunksEmbedded; got != 50 {
		t.Errorf("expected 50 embedded chunks, got %d", got)
	}
}

func TestStatsSnapshot_MeanLatencyEmpty(t *testing.T) {
	if got := (StatsSnapshot{}).MeanLatency(); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestMulti(t *testing.T) {
	var got []string
	record := func(name string) Func {
		return func(e domain.Event) { got = append(got, name+":"+string(e.Kind)) }
	}

	m := Multi{record("a"), nil, Nop{}, record("b")}
	m.Observe(domain.Event{Kind: domain.EventCacheSaved})

	if strings.Join(got, ",") != "a:cache_saved,b:cache_saved" {
		t.Errorf("unexpected fan-out order %v", got)
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLogObserver(logger)

	o.Observe(domain.Event{Kind: domain.EventChunkFailed, ChunkID: "doc-3", Err: errors.New("rate limited")})
	o.Observe(domain.Event{Kind: domain.EventDocumentEmbedded, Document: "Pricing", Count: 1, Total: 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var failed map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &failed); err != nil {
		t.Fatal(err)
	}
	if failed["level"] != "error" || failed["chunk"] != "doc-3" || failed["error"] != "rate limited" {
		t.Errorf("unexpected failure line %v", failed)
	}

	var partial map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &partial); err != nil {
		t.Fatal(err)
	}
	if partial["level"] != "warn" {
		t.Errorf("expected partially embedded document to log at warn, got %v", partial["level"])
	}
}
