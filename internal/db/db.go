package db

import (
	"context"
	"time"
)

// Store is the database facade used by the composition root.
// Repositories declare their own narrow interfaces over it.
//
//nolint:interfacebloat // facade
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one key and its fields for a pipelined write.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore holds account settings and knowledge entries.
//
// The conditional writes are atomic on the server: HSetIfExists never creates
// a hash and HSetIfAbsent never touches an existing one. Both report whether
// the write happened.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error)
	HSetIfAbsent(ctx context.Context, key string, fields map[string]string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// KVStore holds the embedding cache and the token budget counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL stores value; a non-positive ttl keeps it forever.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrBy adds val to the counter at key and returns the new value.
	// A positive ttl is applied only when the counter has no expiry yet.
	IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// IndexManager provides vector index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs nearest-neighbour queries over an index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
