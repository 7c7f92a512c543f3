// Package openai talks to OpenAI-compatible embedding endpoints
// (OpenAI, Nebius, Ollama) and reports per-call metrics.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	"github.com/kailas-cloud/smartdesk/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Failure kinds, used as the "kind" label of the error counter.
const (
	kindRateLimited = "rate_limited"
	kindAuth        = "auth"
	kindRejected    = "rejected"
	kindUpstream    = "upstream"
	kindTransport   = "transport"
	kindMalformed   = "malformed_response"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string // empty means api.openai.com
	Model      string
	Dimensions int // 0 leaves the model default
	User       string
	Provider   string // metric label
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Embedder implements domain.Embedder and domain.BatchEmbedder over the
// /embeddings endpoint. Every call is one HTTP request.
type Embedder struct {
	client *openai.Client
	base   openai.EmbeddingRequest
	labels []string // provider, model
	logger *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cc.HTTPClient = &http.Client{Timeout: timeout}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client: openai.NewClientWithConfig(cc),
		base: openai.EmbeddingRequest{
			Model:          openai.EmbeddingModel(cfg.Model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			Dimensions:     cfg.Dimensions,
			User:           cfg.User,
		},
		labels: []string{cfg.Provider, cfg.Model},
		logger: logger.With(zap.String("provider", cfg.Provider), zap.String("model", cfg.Model)),
	}
}

// Embed vectorizes one text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.call(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed sends all texts in one request. The result follows input order
// whatever order the server answers in.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return e.call(ctx, texts)
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) call(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	req := e.base
	req.Input = texts

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		kind, cause := classify(err)
		e.fail(kind)
		e.logger.Debug("Embedding API call failed", zap.String("kind", kind), zap.Error(err))
		return domain.BatchEmbeddingResult{}, cause
	}

	vecs, err := ordered(resp.Data, len(texts))
	if err != nil {
		e.fail(kindMalformed)
		return domain.BatchEmbeddingResult{}, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.labels[0], e.labels[1], "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.labels...).Observe(elapsed.Seconds())
	if u := resp.Usage; u.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.labels[0], e.labels[1], "prompt").Add(float64(u.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.labels[0], e.labels[1], "total").Add(float64(u.TotalTokens))
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   vecs,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (e *Embedder) fail(kind string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.labels[0], e.labels[1], "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.labels[0], e.labels[1], kind).Inc()
}

// ordered places every embedding at its response index. Exactly n distinct
// indexes in [0, n) must be present.
func ordered(data []openai.Embedding, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, fmt.Errorf("got %d embeddings for %d inputs: %w", len(data), n, domain.ErrEmbeddingProviderError)
	}
	out := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || d.Index >= n || out[d.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d: %w", d.Index, domain.ErrEmbeddingProviderError)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d: %w", d.Index, domain.ErrEmbeddingProviderError)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// classify maps a client error to a failure kind and a readable error
// wrapping domain.ErrEmbeddingProviderError.
func classify(err error) (string, error) {
	var (
		status  int
		message string
	)

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status, message = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status, message = reqErr.HTTPStatusCode, detail(reqErr.Body)
	default:
		return kindTransport, fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	kind := kindUpstream
	switch {
	case status == http.StatusTooManyRequests:
		kind = kindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = kindAuth
	case status >= 400 && status < 500:
		kind = kindRejected
	}
	return kind, fmt.Errorf("embedding API error %d: %s: %w", status, message, domain.ErrEmbeddingProviderError)
}

// detail reads the {"detail": "..."} body some compatible servers (Nebius)
// return instead of the OpenAI error envelope.
func detail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(body)
}
