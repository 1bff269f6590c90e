package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"kbrag/internal/domain"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint, one text per
// request. It never retries; callers decide what a failure means.
type OpenAIEmbedder struct {
	apiKeyEnv string
	model     string
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	lookupEnv func(string) string
}

type OpenAIOptions struct {
	APIKeyEnv         string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAIEmbedder builds a client. The API key is read from the environment
// on every call so a missing key surfaces as a ConfigurationError at call time.
func NewOpenAIEmbedder(opts OpenAIOptions) *OpenAIEmbedder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &OpenAIEmbedder{
		apiKeyEnv: opts.APIKeyEnv,
		model:     opts.Model,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		client:    client,
		limiter:   limiter,
		lookupEnv: os.Getenv,
	}
}

// Normalize collapses newlines to single spaces and trims the result.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	apiKey, err := e.apiKey()
	if err != nil {
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &domain.EmbeddingError{Cause: err}
		}
	}

	vector, err := e.request(ctx, apiKey, Normalize(text))
	if err != nil {
		return nil, &domain.EmbeddingError{Cause: err}
	}
	return vector, nil
}

func (e *OpenAIEmbedder) apiKey() (string, error) {
	if e.apiKeyEnv == "" {
		return "", &domain.ConfigurationError{Setting: "embedding.api_key_env", Reason: "not set"}
	}
	key := e.lookupEnv(e.apiKeyEnv)
	if key == "" {
		return "", &domain.ConfigurationError{
			Setting: e.apiKeyEnv,
			Reason:  "environment variable is not set",
		}
	}
	return key, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, apiKey, input string) ([]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{Input: input, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("API returned no embedding")
	}

	return embResp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
