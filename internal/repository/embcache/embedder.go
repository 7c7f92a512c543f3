// Package embcache memoizes provider embeddings in the key-value store so a
// repeated ticket or a knowledge rebuild does not spend tokens twice.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/db"
	"github.com/kailas-cloud/smartdesk/internal/domain"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config configures the cache decorator.
type Config struct {
	KeyPrefix  string                 // storage namespace, e.g. "smartdesk:"
	Model      string                 // part of the key: vectors from different models never mix
	Dim        int                    // expected vector length; 0 accepts any
	TTL        time.Duration          // 0 keeps entries until evicted
	CacheTotal *prometheus.CounterVec // label "result": "hit"/"miss"; optional
	Logger     *zap.Logger
}

// CachedEmbedder serves embeddings from the store and asks the inner
// embedder only for texts it has not seen. Hits cost no tokens.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	prefix     string
	dim        int
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator around inner.
func New(inner domain.Embedder, s store, cfg Config) *CachedEmbedder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		prefix:     cfg.KeyPrefix + "emb_cache:" + cfg.Model + ":",
		dim:        cfg.Dim,
		ttl:        cfg.TTL,
		cacheTotal: cfg.CacheTotal,
		logger:     logger,
	}
}

// Embed returns the cached vector for text or embeds and caches it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.save(ctx, key, res.Embedding)
	return res, nil
}

// BatchEmbed answers hits from the store and sends every distinct miss to
// the inner embedder once, in a single batch when it supports batching.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := make([][]float32, len(texts))
	pending := make(map[string][]int) // key -> positions waiting for it
	var missKeys, missTexts []string

	for i, text := range texts {
		key := c.key(text)
		if waiting, seen := pending[key]; seen {
			pending[key] = append(waiting, i)
			continue
		}
		if vec, ok := c.lookup(ctx, key); ok {
			out[i] = vec
			continue
		}
		pending[key] = []int{i}
		missKeys = append(missKeys, key)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: out}, nil
	}

	res, err := domain.BatchEmbed(ctx, c.inner, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d uncached texts: %w", len(missTexts), err)
	}
	for j, key := range missKeys {
		for _, i := range pending[key] {
			out[i] = res.Embeddings[j]
		}
		c.save(ctx, key, res.Embeddings[j])
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// key is prefix + hex(sha256(text)).
func (c *CachedEmbedder) key(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(h[:])
}

// lookup counts every probe as a hit or a miss. Unreadable entries and store
// errors are misses; only store errors are logged.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok := c.read(ctx, key)
	if c.cacheTotal != nil {
		result := "miss"
		if ok {
			result = "hit"
		}
		c.cacheTotal.WithLabelValues(result).Inc()
	}
	return vec, ok
}

func (c *CachedEmbedder) read(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, ok := db.DecodeVector(string(data), c.dim)
	if !ok || len(vec) == 0 {
		c.logger.Debug("Ignoring unreadable cached embedding", zap.String("key", key), zap.Int("bytes", len(data)))
		return nil, false
	}
	return vec, true
}

// save writes vec; a failed write only costs a future miss.
func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if err := c.store.SetWithTTL(ctx, key, []byte(db.EncodeVector(vec)), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}
