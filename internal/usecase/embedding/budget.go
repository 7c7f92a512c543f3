package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	domusage "github.com/kailas-cloud/smartdesk/internal/domain/usage"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs the overrun once per window and lets requests through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

const persistTimeout = 2 * time.Second

// BudgetStore persists the shared counters. IncrBy returns the counter after
// the increment, which includes tokens spent by other replicas.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetConfig configures a BudgetTracker. Zero limits mean unlimited.
type BudgetConfig struct {
	KeyPrefix    string // storage namespace, e.g. "smartdesk:"
	Provider     string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
}

// window is one budget period: a UTC day or a UTC month.
type window struct {
	name   string
	layout string // key suffix format
	floor  func(time.Time) time.Time

	limit  int64
	used   int64
	start  time.Time
	warned bool
}

// roll zeroes the window when now belongs to a later period.
func (w *window) roll(now time.Time) {
	if s := w.floor(now); s.After(w.start) {
		w.start = s
		w.used = 0
		w.warned = false
	}
}

func (w *window) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

// remaining is -1 for an unlimited window and never negative otherwise.
func (w *window) remaining() int64 {
	if w.limit <= 0 {
		return -1
	}
	return max(0, w.limit-w.used)
}

// BudgetTracker enforces daily and monthly token caps for one provider.
// Check never leaves the process. Record updates memory first, then adds to
// the shared counters and adopts their value when another replica spent more.
type BudgetTracker struct {
	mu       sync.Mutex
	day      window
	month    window
	action   BudgetAction
	provider string
	prefix   string
	now      func() time.Time
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker with the given limits.
func NewBudgetTracker(cfg BudgetConfig, logger *zap.Logger) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	action := cfg.Action
	if action == "" {
		action = BudgetActionWarn
	}
	b := &BudgetTracker{
		day:      window{name: "daily", layout: "2006-01-02", floor: startOfDay, limit: cfg.DailyLimit},
		month:    window{name: "monthly", layout: "2006-01", floor: startOfMonth, limit: cfg.MonthlyLimit},
		action:   action,
		provider: cfg.Provider,
		prefix:   cfg.KeyPrefix,
		now:      time.Now,
		logger:   logger,
	}
	b.setClock(b.now)
	return b
}

// setClock replaces the time source and realigns both windows to it.
func (b *BudgetTracker) setClock(now func() time.Time) {
	b.now = now
	t := now().UTC()
	b.day.start = startOfDay(t)
	b.month.start = startOfMonth(t)
}

// WithStore attaches the shared counters and loads the current window values.
// A failed load is logged and the window starts from zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now().UTC()
	for _, w := range []*window{&b.day, &b.month} {
		w.roll(now)
		key := b.key(w)
		used, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load budget counter", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = used
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

func (b *BudgetTracker) key(w *window) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", b.prefix, b.provider, w.name, w.start.Format(w.layout))
}

// Check reports whether a new request may spend tokens.
// With the reject action an exhausted window returns domain.ErrEmbeddingQuotaExceeded.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	for _, w := range []*window{&b.day, &b.month} {
		if !w.exceeded() {
			continue
		}
		if b.action == BudgetActionReject {
			return fmt.Errorf("%s limit of %d tokens reached: %w", w.name, w.limit, domain.ErrEmbeddingQuotaExceeded)
		}
		if !w.warned {
			w.warned = true
			b.logger.Warn("Token budget exceeded",
				zap.String("provider", b.provider),
				zap.String("window", w.name),
				zap.Int64("used", w.used),
				zap.Int64("limit", w.limit),
			)
		}
	}
	return nil
}

// Record adds consumed tokens to both windows.
func (b *BudgetTracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.rollLocked()
	b.day.used += tokens
	b.month.used += tokens
	store := b.store
	keys := [2]string{b.key(&b.day), b.key(&b.month)}
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a cancelled caller still gets its spend recorded.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for i, w := range []*window{&b.day, &b.month} {
		shared, err := store.IncrBy(ctx, keys[i], tokens)
		if err != nil {
			b.logger.Warn("Failed to persist budget counter", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		b.adopt(w, keys[i], shared)
	}
}

// adopt raises the local counter to the shared one, unless the window rolled
// over while the increment was in flight.
func (b *BudgetTracker) adopt(w *window, key string, shared int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.key(w) == key && shared > w.used {
		w.used = shared
	}
}

func (b *BudgetTracker) rollLocked() {
	now := b.now().UTC()
	b.day.roll(now)
	b.month.roll(now)
}

func (b *BudgetTracker) read(w *window, f func(*window) int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return f(w)
}

func used(w *window) int64      { return w.used }
func remaining(w *window) int64 { return w.remaining() }

// RemainingDaily returns tokens left today, -1 if unlimited.
func (b *BudgetTracker) RemainingDaily() int64 { return b.read(&b.day, remaining) }

// RemainingMonthly returns tokens left this month, -1 if unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 { return b.read(&b.month, remaining) }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 { return b.read(&b.day, used) }

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 { return b.read(&b.month, used) }

// Daily snapshots today's window.
func (b *BudgetTracker) Daily() domusage.Budget { return b.snapshot(&b.day) }

// Monthly snapshots this month's window.
func (b *BudgetTracker) Monthly() domusage.Budget { return b.snapshot(&b.month) }

// snapshot reads limit, spend and remainder under one lock. Remaining is
// zero for an uncapped window.
func (b *BudgetTracker) snapshot(w *window) domusage.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return domusage.Budget{
		Limit:     max(0, w.limit),
		Used:      w.used,
		Remaining: max(0, w.remaining()),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
