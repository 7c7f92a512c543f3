package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/smartdesk/internal/db"
)

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "smartdesk:emb_cache:m:abc")).
		Return(mock.Result(mock.RedisBlobString("cached")))

	data, err := s.Get(context.Background(), "smartdesk:emb_cache:m:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "cached" {
		t.Errorf("data = %q", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want []string
	}{
		{"expiring", time.Hour, []string{"SET", "k", "v", "EX", "3600"}},
		{"persistent", 0, []string{"SET", "k", "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.Match(tt.want...)).
				Return(mock.Result(mock.RedisString("OK")))

			if err := s.SetWithTTL(context.Background(), "k", []byte("v"), tt.ttl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestIncrBy_PipelinesExpireNX(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("INCRBY", "smartdesk:budget:openai:daily:2026-03-14", "42"),
			mock.Match("EXPIRE", "smartdesk:budget:openai:daily:2026-03-14", "172800", "NX"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(142)),
			mock.Result(mock.RedisInt64(0)),
		})

	n, err := s.IncrBy(context.Background(), "smartdesk:budget:openai:daily:2026-03-14", 42, 48*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 142 {
		t.Errorf("counter = %d, want 142", n)
	}
}

func TestIncrBy_WithoutTTL(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "c", "5")).
		Return(mock.Result(mock.RedisInt64(5)))

	if n, err := s.IncrBy(context.Background(), "c", 5, 0); err != nil || n != 5 {
		t.Fatalf("n = %d, err = %v", n, err)
	}
}

func TestIncrBy_ExpireFailureKeepsCount(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(7)),
			mock.Result(mock.RedisError("ERR syntax error")),
		})

	n, err := s.IncrBy(context.Background(), "c", 7, time.Hour)
	if !isDBError(err, db.OpExpire) {
		t.Fatalf("expected EXPIRE db.Error, got %v", err)
	}
	if n != 7 {
		t.Errorf("counter = %d, want 7", n)
	}
}
