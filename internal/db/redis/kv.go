package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/smartdesk/internal/db"
)

// Get returns the string at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// SetWithTTL stores value at key. SET EX when ttl is positive, plain SET otherwise.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.b().Set().Key(key).Value(rueidis.BinaryString(value))
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	return nil
}

// IncrBy pipelines INCRBY and EXPIRE NX in one round trip, so a counter never
// outlives its window and a later increment does not push the expiry forward.
func (s *Store) IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	incr := s.b().Incrby().Key(key).Increment(val).Build()
	if ttl <= 0 {
		n, err := s.do(ctx, incr).AsInt64()
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
		}
		return n, nil
	}

	expire := s.b().Expire().Key(key).Seconds(int64(ttl / time.Second)).Nx().Build()
	res := s.client.DoMulti(ctx, incr, expire)
	n, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return n, &db.Error{Op: db.OpExpire, Key: key, Err: err}
	}
	return n, nil
}
