package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/smartdesk/internal/domain/usage"
)

type mockBudgetReader struct {
	daily, monthly domusage.Budget
}

func (m *mockBudgetReader) Daily() domusage.Budget   { return m.daily }
func (m *mockBudgetReader) Monthly() domusage.Budget { return m.monthly }

var fixedNow = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

func newTestService(br BudgetReader) *Service {
	svc := New(br, "openai")
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestReport_Day(t *testing.T) {
	svc := newTestService(&mockBudgetReader{
		daily:   domusage.Budget{Limit: 10000, Used: 3000, Remaining: 7000},
		monthly: domusage.Budget{Limit: 100000, Used: 50000, Remaining: 50000},
	})
	r := svc.Report(context.Background(), domusage.PeriodDay)

	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}
	if r.Provider() != "openai" {
		t.Errorf("expected provider openai, got %q", r.Provider())
	}
	dayStart := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != dayStart.UnixMilli() {
		t.Errorf("expected start %d, got %d", dayStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("unexpected end %d", r.PeriodEnd())
	}
	b := r.Budget()
	if b.Limit != 10000 || b.Used != 3000 || b.Remaining != 7000 {
		t.Errorf("unexpected budget %+v", b)
	}
	if b.ResetsAt != r.PeriodEnd() {
		t.Errorf("expected reset at window end, got %d", b.ResetsAt)
	}
	if b.Exhausted() {
		t.Error("budget should not be exhausted")
	}
}

func TestReport_Month(t *testing.T) {
	svc := newTestService(&mockBudgetReader{
		monthly: domusage.Budget{Limit: 100000, Used: 80000, Remaining: 20000},
	})
	r := svc.Report(context.Background(), domusage.PeriodMonth)

	monthStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != monthStart.UnixMilli() {
		t.Errorf("expected start %d, got %d", monthStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("unexpected end %d", r.PeriodEnd())
	}
	if r.Budget().Used != 80000 {
		t.Errorf("expected used 80000, got %d", r.Budget().Used)
	}
}

func TestReport_TotalHasNoWindow(t *testing.T) {
	svc := newTestService(&mockBudgetReader{
		monthly: domusage.Budget{Limit: 100000, Used: 100000},
	})
	r := svc.Report(context.Background(), domusage.PeriodTotal)

	if r.PeriodStart() != 0 || r.PeriodEnd() != 0 {
		t.Errorf("expected empty window, got [%d, %d)", r.PeriodStart(), r.PeriodEnd())
	}
	if r.Budget().ResetsAt != 0 {
		t.Errorf("expected no reset, got %d", r.Budget().ResetsAt)
	}
	if !r.Budget().Exhausted() {
		t.Error("budget should be exhausted")
	}
}

func TestReport_NoBudget(t *testing.T) {
	svc := newTestService(nil)
	r := svc.Report(context.Background(), domusage.PeriodDay)

	if !r.Budget().Unlimited() {
		t.Errorf("expected unlimited budget, got %+v", r.Budget())
	}
	if r.Budget().Exhausted() {
		t.Error("unlimited budget cannot be exhausted")
	}
}

func TestReport_UnlimitedWindowTracksUsage(t *testing.T) {
	// Monthly cap only: the daily window still reports spend.
	svc := newTestService(&mockBudgetReader{
		daily:   domusage.Budget{Used: 1200, Remaining: -1},
		monthly: domusage.Budget{Limit: 50000, Used: 1200, Remaining: 48800},
	})
	r := svc.Report(context.Background(), domusage.PeriodDay)

	b := r.Budget()
	if !b.Unlimited() || b.Used != 1200 || b.Remaining != 0 {
		t.Errorf("unexpected budget %+v", b)
	}
}
