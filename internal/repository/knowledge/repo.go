package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/smartdesk/internal/db"
	"github.com/kailas-cloud/smartdesk/internal/domain"
	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
)

// store is the consumer interface for the knowledge index (ISP).
//
//nolint:interfacebloat // knowledge repo needs hash + index management + KNN
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Hit is one nearest-neighbour result.
type Hit struct {
	Entry    domkb.Entry
	Distance float64 // squared L2
}

// Repo implements usecase/knowledge.Repository on a hash-backed FLAT/L2 index.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a knowledge repository. keyPrefix namespaces every key, e.g. "smartdesk:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Replace swaps the indexed entries: drops the old index and entry hashes,
// recreates the index for dim and writes one hash per entry.
func (r *Repo) Replace(ctx context.Context, entries []domkb.Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("%d entries, %d vectors: %w", len(entries), len(vectors), domain.ErrVectorDimMismatch)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries: %w", domain.ErrInvalidKnowledge)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("entry %s has dim %d, want %d: %w", entries[i].ID(), len(v), dim, domain.ErrVectorDimMismatch)
		}
	}

	def, err := db.NewIndex(r.indexName()).
		Prefix(r.entryPrefix()).
		Tag("id").
		FlatVector("vector", "", dim, db.DistanceL2).
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.clear(ctx); err != nil {
		return err
	}

	items := make([]db.HashSetItem, len(entries))
	for i, e := range entries {
		items[i] = db.HashSetItem{Key: r.entryKey(e.ID()), Fields: entryToHash(e, vectors[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset knowledge entries: %w", err)
	}

	// FT.CREATE: roll back the hashes on failure
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return errors.Join(fmt.Errorf("create knowledge index: %w", err), r.deleteEntries(ctx))
	}

	return nil
}

// Nearest returns up to k entries closest to vector, nearest first.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Field:        "vector",
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"id", "title", "content"},
		RawScores:    true,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrKnowledgeIndexNotReady
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		entry, err := entryFromHash(strings.TrimPrefix(e.Key, r.entryPrefix()), e.Fields)
		if err != nil {
			return nil, fmt.Errorf("parse knowledge entry %s: %w", e.Key, err)
		}
		hits = append(hits, Hit{Entry: entry, Distance: e.Score})
	}
	return hits, nil
}

func (r *Repo) clear(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check knowledge index: %w", err)
	}
	if exists {
		if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop knowledge index: %w", err)
		}
	}
	return r.deleteEntries(ctx)
}

func (r *Repo) deleteEntries(ctx context.Context) error {
	if _, err := r.store.DeletePrefix(ctx, r.entryPrefix()); err != nil {
		return fmt.Errorf("delete knowledge entries: %w", err)
	}
	return nil
}

// Key patterns: {prefix}kb:{id}, {prefix}kb_idx

func (r *Repo) indexName() string { return r.keyPrefix + "kb_idx" }

func (r *Repo) entryPrefix() string { return r.keyPrefix + "kb:" }

func (r *Repo) entryKey(id string) string { return r.entryPrefix() + id }
