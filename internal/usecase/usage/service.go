package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/smartdesk/internal/domain/usage"
)

// Service reports embedding token spend against the configured budget.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br may be nil when no budget is configured.
func New(br BudgetReader, provider string) *Service {
	return &Service{br: br, provider: provider, now: time.Now}
}

// Report builds the budget report for period. Day and month are UTC calendar
// windows. Total has no window: counters are only kept per month, so it
// reports the running month and never resets.
func (s *Service) Report(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()

	var (
		start, end time.Time
		read       func(BudgetReader) domusage.Budget
	)
	switch period {
	case domusage.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		read = BudgetReader.Daily
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		read = BudgetReader.Monthly
	default:
		read = BudgetReader.Monthly
	}

	var b domusage.Budget
	if s.br != nil {
		b = read(s.br)
		b.ResetsAt = millis(end)
	}
	if b.Unlimited() {
		b.Remaining = 0
	}
	return domusage.NewReport(period, s.provider, millis(start), millis(end), b)
}

// millis is zero for the zero time.
func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
