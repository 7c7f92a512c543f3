// Package memory is an in-process db.Store. It backs single-node
// deployments and tests: hashes, TTL'd keys and exhaustive KNN over
// indexed hashes, with the same key and field layout as the Redis backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/smartdesk/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// Store keeps all data in process memory. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	kv      map[string]kvEntry
	hashes  map[string]map[string]string
	indexes map[string]*db.IndexDefinition
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		kv:      make(map[string]kvEntry),
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*db.IndexDefinition),
		now:     time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// --- KV ---

// Get returns the value stored at key or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.liveKV(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// SetWithTTL stores value. A non-positive ttl keeps it forever.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.kv[key] = e
	return nil
}

// IncrBy adds val to the counter at key, creating it at zero. A positive ttl
// is applied only when the counter has no expiry yet.
func (s *Store) IncrBy(_ context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur int64
	e, ok := s.liveKV(key)
	if ok {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Err: db.ErrNotInteger}
		}
		cur = n
	}
	cur += val
	e.value = []byte(strconv.FormatInt(cur, 10))
	if ttl > 0 && e.expiresAt.IsZero() {
		e.expiresAt = s.now().Add(ttl)
	}
	s.kv[key] = e
	return cur, nil
}

// liveKV must be called with mu held.
func (s *Store) liveKV(key string) (kvEntry, bool) {
	e, ok := s.kv[key]
	if !ok {
		return kvEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		return kvEntry{}, false
	}
	return e, true
}

// --- Hashes ---

// HSet sets hash fields, creating the hash when absent.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hset(key, fields)
	return nil
}

// HSetMulti sets several hashes under one lock.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.hset(item.Key, item.Fields)
	}
	return nil
}

func (s *Store) hset(key string, fields map[string]string) {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
}

// HGetAll returns a copy of the hash. A missing key yields an empty map, as in Redis.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.hashes[key]
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

// HSetIfExists updates fields of an existing hash and never creates one.
func (s *Store) HSetIfExists(_ context.Context, key string, fields map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[key]; !ok {
		return false, nil
	}
	s.hset(key, fields)
	return true, nil
}

// HSetIfAbsent creates the hash only when key does not exist.
func (s *Store) HSetIfAbsent(_ context.Context, key string, fields map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[key]; ok {
		return false, nil
	}
	if _, ok := s.liveKV(key); ok {
		return false, nil
	}
	s.hset(key, fields)
	return true, nil
}

// DeletePrefix removes every hash and live value whose key starts with prefix.
func (s *Store) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.hashes {
		if strings.HasPrefix(k, prefix) {
			delete(s.hashes, k)
			removed++
		}
	}
	for k := range s.kv {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, live := s.liveKV(k); live {
			removed++
		}
		delete(s.kv, k)
	}
	return removed, nil
}

// --- Indexes ---

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	cp := *def
	cp.Prefixes = append([]string(nil), def.Prefixes...)
	cp.Fields = append([]db.IndexField(nil), def.Fields...)
	s.indexes[def.Name] = &cp
	return nil
}

// DropIndex forgets an index. Indexed hashes are kept.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether an index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// --- Search ---

// SearchKNN scans every hash under the index prefixes and returns the K
// nearest by the index distance metric. Hashes whose vector is missing or
// has the wrong dimension are not indexed, matching server behaviour.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	vf, ok := def.VectorField(q.VectorField())
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("index has no vector field")}
	}
	spec := *vf.Vector
	if len(q.Vector) != spec.Dim {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("query vector dim %d, index dim %d", len(q.Vector), spec.Dim)}
	}

	entries := make([]db.SearchEntry, 0)
	for key, h := range s.hashes {
		if !hasAnyPrefix(key, def.Prefixes) {
			continue
		}
		vec, ok := db.DecodeVector(h[vf.Name], spec.Dim)
		if !ok {
			continue
		}
		d := distance(spec.Distance(), q.Vector, vec)
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  q.Score(d),
			Fields: project(h, q.ReturnFields, vf.Name),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score == entries[j].Score {
			return entries[i].Key < entries[j].Key
		}
		return q.Less(entries[i].Score, entries[j].Score)
	})

	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	if total > q.K {
		total = q.K
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func hasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func project(h map[string]string, fields []string, vectorField string) map[string]string {
	out := make(map[string]string)
	if len(fields) == 0 {
		for k, v := range h {
			if k != vectorField {
				out[k] = v
			}
		}
		return out
	}
	for _, f := range fields {
		if v, ok := h[f]; ok {
			out[f] = v
		}
	}
	return out
}

// distance mirrors the server metrics: squared Euclidean for L2,
// 1-dot for IP and 1-cosine for COSINE.
func distance(metric db.DistanceMetric, a, b []float32) float64 {
	var dot, na, nb, l2 float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
		l2 += (x - y) * (x - y)
	}
	switch metric {
	case db.DistanceIP:
		return 1 - dot
	case db.DistanceCosine:
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	default:
		return l2
	}
}
