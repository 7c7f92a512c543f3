package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/smartdesk/internal/domain"
)

var budgetNow = time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC)

const (
	dailyKey   = "smartdesk:budget:openai:daily:2026-03-09"
	monthlyKey = "smartdesk:budget:openai:monthly:2026-03"
)

func newTracker(cfg BudgetConfig, logger *zap.Logger) *BudgetTracker {
	cfg.KeyPrefix = "smartdesk:"
	cfg.Provider = "openai"
	bt := NewBudgetTracker(cfg, logger)
	bt.setClock(func() time.Time { return budgetNow })
	return bt
}

// sharedStore stands in for the counters several replicas write to.
type sharedStore struct {
	mu      sync.Mutex
	data    map[string]int64
	getErr  error
	incrErr error
}

func newSharedStore() *sharedStore {
	return &sharedStore{data: make(map[string]int64)}
}

func (s *sharedStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.data[key] += val
	return s.data[key], nil
}

func (s *sharedStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return 0, s.getErr
	}
	return s.data[key], nil
}

func (s *sharedStore) value(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func TestCheck_Limits(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BudgetConfig
		spent   int64
		wantErr bool
	}{
		{"daily reached", BudgetConfig{DailyLimit: 100, Action: BudgetActionReject}, 100, true},
		{"monthly reached", BudgetConfig{MonthlyLimit: 500, Action: BudgetActionReject}, 500, true},
		{"below both", BudgetConfig{DailyLimit: 1000, MonthlyLimit: 10000, Action: BudgetActionReject}, 999, false},
		{"unlimited", BudgetConfig{Action: BudgetActionReject}, 1 << 40, false},
		{"warn over limit", BudgetConfig{DailyLimit: 100, Action: BudgetActionWarn}, 200, false},
		{"default action warns", BudgetConfig{DailyLimit: 1}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt := newTracker(tt.cfg, nil)
			bt.Record(tt.spent)

			err := bt.Check(context.Background())
			if got := errors.Is(err, domain.ErrEmbeddingQuotaExceeded); got != tt.wantErr {
				t.Fatalf("Check() = %v, want quota error %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheck_WarnsOncePerWindow(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bt := newTracker(BudgetConfig{DailyLimit: 10}, zap.New(core))

	bt.Record(10)
	for range 3 {
		if err := bt.Check(context.Background()); err != nil {
			t.Fatalf("warn action must allow the request: %v", err)
		}
	}
	if n := logs.FilterMessage("Token budget exceeded").Len(); n != 1 {
		t.Errorf("logged %d warnings, want 1", n)
	}
}

func TestRemaining(t *testing.T) {
	bt := newTracker(BudgetConfig{DailyLimit: 1000, MonthlyLimit: 10000}, nil)
	bt.Record(300)

	if got := bt.RemainingDaily(); got != 700 {
		t.Errorf("RemainingDaily() = %d, want 700", got)
	}
	if got := bt.RemainingMonthly(); got != 9700 {
		t.Errorf("RemainingMonthly() = %d, want 9700", got)
	}

	bt.Record(5000)
	if got := bt.RemainingDaily(); got != 0 {
		t.Errorf("overspent RemainingDaily() = %d, want 0", got)
	}
}

func TestSnapshot(t *testing.T) {
	bt := newTracker(BudgetConfig{DailyLimit: 1000}, nil)
	bt.Record(400)

	day := bt.Daily()
	if day.Limit != 1000 || day.Used != 400 || day.Remaining != 600 || day.Exhausted() {
		t.Errorf("daily = %+v", day)
	}
	month := bt.Monthly()
	if !month.Unlimited() || month.Used != 400 || month.Remaining != 0 {
		t.Errorf("monthly = %+v", month)
	}

	bt.Record(700)
	if !bt.Daily().Exhausted() {
		t.Errorf("daily should be exhausted: %+v", bt.Daily())
	}
}

func TestRemaining_Unlimited(t *testing.T) {
	bt := newTracker(BudgetConfig{}, nil)
	if bt.RemainingDaily() != -1 || bt.RemainingMonthly() != -1 {
		t.Errorf("remaining = %d/%d, want -1/-1", bt.RemainingDaily(), bt.RemainingMonthly())
	}
}

func TestRecord_IgnoresNonPositive(t *testing.T) {
	store := newSharedStore()
	bt := newTracker(BudgetConfig{DailyLimit: 100}, nil).WithStore(context.Background(), store)

	bt.Record(0)
	bt.Record(-5)

	if bt.DailyUsed() != 0 || store.value(dailyKey) != 0 {
		t.Errorf("used = %d, stored = %d", bt.DailyUsed(), store.value(dailyKey))
	}
}

func TestWithStore_LoadsCurrentWindows(t *testing.T) {
	store := newSharedStore()
	store.data[dailyKey] = 300
	store.data[monthlyKey] = 5000
	store.data["smartdesk:budget:openai:daily:2026-03-08"] = 999

	bt := newTracker(BudgetConfig{DailyLimit: 1000, MonthlyLimit: 10000}, nil).
		WithStore(context.Background(), store)

	if bt.DailyUsed() != 300 || bt.MonthlyUsed() != 5000 {
		t.Errorf("used = %d/%d, want 300/5000", bt.DailyUsed(), bt.MonthlyUsed())
	}
}

func TestWithStore_LoadErrorStartsAtZero(t *testing.T) {
	store := newSharedStore()
	store.getErr = errors.New("connection refused")
	core, logs := observer.New(zapcore.WarnLevel)

	bt := newTracker(BudgetConfig{DailyLimit: 1000}, zap.New(core)).WithStore(context.Background(), store)

	if bt.DailyUsed() != 0 || bt.MonthlyUsed() != 0 {
		t.Errorf("used = %d/%d, want 0/0", bt.DailyUsed(), bt.MonthlyUsed())
	}
	if logs.FilterMessage("Failed to load budget counter").Len() != 2 {
		t.Errorf("expected a warning per window, got %v", logs.All())
	}
}

func TestRecord_PersistsBothWindows(t *testing.T) {
	store := newSharedStore()
	bt := newTracker(BudgetConfig{DailyLimit: 10000}, nil).WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)

	if got := store.value(dailyKey); got != 300 {
		t.Errorf("stored daily = %d, want 300", got)
	}
	if got := store.value(monthlyKey); got != 300 {
		t.Errorf("stored monthly = %d, want 300", got)
	}
}

func TestRecord_AdoptsSharedCounter(t *testing.T) {
	store := newSharedStore()
	bt := newTracker(BudgetConfig{DailyLimit: 1000, Action: BudgetActionReject}, nil).
		WithStore(context.Background(), store)

	// Another replica spends after this one loaded.
	_, _ = store.IncrBy(context.Background(), dailyKey, 950)

	bt.Record(60)
	if got := bt.DailyUsed(); got != 1010 {
		t.Fatalf("DailyUsed() = %d, want 1010", got)
	}
	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Errorf("expected quota error from shared spend, got %v", err)
	}
}

func TestRecord_StoreErrorKeepsLocalCount(t *testing.T) {
	store := newSharedStore()
	bt := newTracker(BudgetConfig{DailyLimit: 1000}, nil).WithStore(context.Background(), store)

	store.mu.Lock()
	store.incrErr = errors.New("write timeout")
	store.mu.Unlock()

	bt.Record(50)
	if got := bt.DailyUsed(); got != 50 {
		t.Errorf("DailyUsed() = %d, want 50", got)
	}
}

func TestRollover(t *testing.T) {
	now := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	bt := newTracker(BudgetConfig{DailyLimit: 100, MonthlyLimit: 1000, Action: BudgetActionReject}, nil)
	bt.setClock(func() time.Time { return now })

	bt.Record(100)
	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error before midnight, got %v", err)
	}

	now = time.Date(2026, 4, 1, 0, 1, 0, 0, time.UTC)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected daily reset after midnight, got %v", err)
	}
	if got := bt.MonthlyUsed(); got != 0 {
		t.Errorf("MonthlyUsed() = %d after month rollover, want 0", got)
	}
}

func TestRollover_DayKeepsMonth(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	bt := newTracker(BudgetConfig{DailyLimit: 100}, nil)
	bt.setClock(func() time.Time { return now })

	bt.Record(80)
	now = now.Add(2 * time.Minute)

	if bt.DailyUsed() != 0 || bt.MonthlyUsed() != 80 {
		t.Errorf("used = %d/%d, want 0/80", bt.DailyUsed(), bt.MonthlyUsed())
	}
}

func TestKeyLayout(t *testing.T) {
	bt := newTracker(BudgetConfig{}, nil)
	if got := bt.key(&bt.day); got != dailyKey {
		t.Errorf("daily key = %s", got)
	}
	if got := bt.key(&bt.month); got != monthlyKey {
		t.Errorf("monthly key = %s", got)
	}
}
