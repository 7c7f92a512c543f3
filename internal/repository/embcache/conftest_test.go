package embcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/smartdesk/internal/db"
	"github.com/kailas-cloud/smartdesk/internal/domain"
)

// countingProvider returns vec for every text and bills tokens per text.
type countingProvider struct {
	vec     []float32
	tokens  int
	err     error
	short   bool // return one vector fewer than asked
	batches [][]string
	singles int
}

func (p *countingProvider) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	p.singles++
	if p.err != nil {
		return domain.EmbeddingResult{}, p.err
	}
	return domain.EmbeddingResult{Embedding: p.vec, PromptTokens: p.tokens, TotalTokens: p.tokens}, nil
}

func (p *countingProvider) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	p.batches = append(p.batches, texts)
	if p.err != nil {
		return domain.BatchEmbeddingResult{}, p.err
	}
	n := len(texts)
	if p.short {
		n--
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, n)}
	for i := range out.Embeddings {
		out.Embeddings[i] = p.vec
	}
	out.PromptTokens = p.tokens * len(texts)
	out.TotalTokens = out.PromptTokens
	return out, nil
}

type setCall struct {
	key string
	ttl time.Duration
}

// kvStore is a map-backed cache store that records writes.
type kvStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   []setCall
	getErr error
	setErr error
}

func newKVStore() *kvStore {
	return &kvStore{data: make(map[string][]byte)}
}

func (s *kvStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *kvStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, setCall{key, ttl})
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *kvStore) put(key string, vec []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = []byte(db.EncodeVector(vec))
}
