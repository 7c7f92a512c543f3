package knowledge

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/smartdesk/internal/metrics"
)

// Match is the nearest knowledge entry for a query text.
type Match struct {
	Entry    domkb.Entry
	Distance float64 // squared L2
}

// Service embeds the knowledge base once and answers nearest-entry queries.
type Service struct {
	repo     Repository
	embedder domain.Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	entries []domkb.Entry
	dim     int
}

// New creates a knowledge service.
func New(repo Repository, embedder domain.Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embedder: embedder, logger: logger}
}

// Build prepares corpus-dependent embedders, embeds every entry's content
// and replaces the index. Safe to call again with a different entry set.
func (s *Service) Build(ctx context.Context, entries []domkb.Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("knowledge base is empty: %w", domain.ErrInvalidKnowledge)
	}
	if err := domkb.Validate(entries); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidKnowledge, err)
	}

	contents := domkb.Contents(entries)
	if err := domain.Prepare(s.embedder, contents); err != nil {
		return fmt.Errorf("build knowledge: %w", err)
	}

	res, err := domain.BatchEmbed(ctx, s.embedder, contents)
	if err != nil {
		return fmt.Errorf("embed knowledge: %w", err)
	}
	if len(res.Embeddings) != len(entries) {
		return fmt.Errorf("got %d vectors for %d entries: %w",
			len(res.Embeddings), len(entries), domain.ErrEmbeddingProviderError)
	}

	if err := s.repo.Replace(ctx, entries, res.Embeddings); err != nil {
		return fmt.Errorf("index knowledge: %w", err)
	}

	s.mu.Lock()
	s.entries = append([]domkb.Entry(nil), entries...)
	s.dim = len(res.Embeddings[0])
	s.mu.Unlock()
	metrics.KnowledgeEntries.Set(float64(len(entries)))

	s.logger.Info("Knowledge base indexed",
		zap.Int("entries", len(entries)),
		zap.Int("dimensions", len(res.Embeddings[0])),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return nil
}

// Nearest returns the closest entry to text. ok is false when the text
// carries no signal (zero vector) or nothing is indexed.
func (s *Service) Nearest(ctx context.Context, text string) (Match, bool, error) {
	s.mu.RLock()
	dim := s.dim
	s.mu.RUnlock()
	if dim == 0 {
		return Match{}, false, domain.ErrKnowledgeIndexNotReady
	}

	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return Match{}, false, fmt.Errorf("embed query: %w", err)
	}
	if len(res.Embedding) != dim {
		return Match{}, false, fmt.Errorf("query dim %d, index dim %d: %w",
			len(res.Embedding), dim, domain.ErrVectorDimMismatch)
	}
	if isZero(res.Embedding) {
		return Match{}, false, nil
	}

	hits, err := s.repo.Nearest(ctx, res.Embedding, 1)
	if err != nil {
		return Match{}, false, fmt.Errorf("search knowledge: %w", err)
	}
	if len(hits) == 0 {
		return Match{}, false, nil
	}

	return Match{Entry: hits[0].Entry, Distance: hits[0].Distance}, true, nil
}

// Entries returns the indexed entries in load order.
func (s *Service) Entries() []domkb.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domkb.Entry(nil), s.entries...)
}

// Ready reports whether Build has completed.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim > 0
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
