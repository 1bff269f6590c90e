package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kbrag/internal/domain"
)

func setupKnowledgeBase(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	docs := filepath.Join(root, "docs")
	if err := os.MkdirAll(docs, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"pricing.md":  "# Pricing\n\nStarter plan costs ten dollars. Pro plan costs fifty dollars.",
		"support.txt": "Email support at help desk during business hours.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(docs, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfgYAML := `documents:
  dir: docs
embedding:
  provider: mock
  dimension: 1024
cache:
  backend: json
  path: cache/embeddings.json
logging:
  level: error
`
	if err := os.WriteFile(filepath.Join(root, "rag.yaml"), []byte(cfgYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

// runCLI resets the package-level flag state and runs one command.
func runCLI(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()

	cfgFile, rootDir, envFile, logLevel = "", "", "", ""
	indexNoProgress = false
	queryText, queryTopK, queryJSON, queryContext, queryInteractive = "", 0, false, false, false
	promptQuery, promptTopK, promptWithSources, promptNoQuestion = "", 0, false, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--dir", root}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIndexCommand(t *testing.T) {
	root := setupKnowledgeBase(t)

	out, err := runCLI(t, root, "index", "--no-progress")
	if err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if !strings.Contains(out, "Documents embedded: 2") {
		t.Errorf("expected 2 embedded documents, got:\n%s", out)
	}
	cachePath := filepath.Join(root, "cache", "embeddings.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	out, err = runCLI(t, root, "index", "--no-progress")
	if err != nil {
		t.Fatalf("second index failed: %v", err)
	}
	if !strings.Contains(out, "Documents cached:   2") {
		t.Errorf("expected both documents reused from cache, got:\n%s", out)
	}
	if strings.Contains(out, "Cache stored at") {
		t.Errorf("unchanged cache should not be rewritten, got:\n%s", out)
	}
}

func TestQueryCommandJSON(t *testing.T) {
	root := setupKnowledgeBase(t)

	out, err := runCLI(t, root, "query", "-q", "starter plan costs", "-k", "1", "--json")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	var sources []domain.Source
	if err := json.Unmarshal([]byte(out), &sources); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if sources[0].Metadata.Title != "pricing" {
		t.Errorf("expected pricing document, got %q", sources[0].Metadata.Title)
	}
	if sources[0].Similarity <= 0 || sources[0].Similarity > 1 {
		t.Errorf("similarity out of range: %f", sources[0].Similarity)
	}
}

func TestQueryCommandFlagErrors(t *testing.T) {
	root := setupKnowledgeBase(t)

	if _, err := runCLI(t, root, "query"); err == nil {
		t.Error("expected error without a query")
	}
	if _, err := runCLI(t, root, "query", "-q", "plans", "--json", "--context"); err == nil {
		t.Error("expected error for --json with --context")
	}
}

func TestQueryCommandInteractive(t *testing.T) {
	root := setupKnowledgeBase(t)

	rootCmd.SetIn(strings.NewReader("business hours\n\nquit\nnever read\n"))
	defer rootCmd.SetIn(nil)

	out, err := runCLI(t, root, "query", "-i", "-k", "1")
	if err != nil {
		t.Fatalf("interactive query failed: %v", err)
	}
	if !strings.Contains(out, "support") {
		t.Errorf("expected the support document, got:\n%s", out)
	}
	if strings.Contains(out, "never read") {
		t.Errorf("input after quit should be ignored, got:\n%s", out)
	}
}

func TestPromptCommand(t *testing.T) {
	root := setupKnowledgeBase(t)

	out, err := runCLI(t, root, "prompt", "-q", "starter plan costs", "-k", "1", "--sources")
	if err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	for _, want := range []string{
		"Context from knowledge base:\nDocument: pricing\nContent: Pricing Starter plan costs ten dollars.",
		"Instructions:",
		"Question: starter plan costs",
		"[1] pricing (similarity: ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
}

func TestCacheCommands(t *testing.T) {
	root := setupKnowledgeBase(t)

	if _, err := runCLI(t, root, "index", "--no-progress"); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	out, err := runCLI(t, root, "cache", "info")
	if err != nil {
		t.Fatalf("cache info failed: %v", err)
	}
	if !strings.Contains(out, "2 documents") || !strings.Contains(out, "dimension: 1024") {
		t.Errorf("unexpected cache info:\n%s", out)
	}

	if _, err := runCLI(t, root, "cache", "clear"); err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	out, err = runCLI(t, root, "cache", "info")
	if err != nil {
		t.Fatalf("cache info failed: %v", err)
	}
	if !strings.Contains(out, "No cached documents.") {
		t.Errorf("expected empty cache after clear, got:\n%s", out)
	}
}

func TestRenderPromptWithoutQuestion(t *testing.T) {
	got, err := renderPrompt("templates/system_prompt.txt", PromptData{Context: "ctx"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "Question:") || strings.Contains(got, "Sources:") {
		t.Errorf("empty sections should be omitted:\n%s", got)
	}
	if !strings.HasSuffix(got, "politely explain this") {
		t.Errorf("unexpected prompt ending:\n%s", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{250, "250ms"},
		{1500, "1s"},
		{125000, "2m5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(time.Duration(tt.ms) * time.Millisecond); got != tt.want {
			t.Errorf("formatDuration(%dms) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
