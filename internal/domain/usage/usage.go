package usage

import (
	"fmt"

	"github.com/kailas-cloud/smartdesk/internal/domain"
)

// Period is the reporting window of an embedding budget report.
type Period string

// Reporting windows.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod maps a query value to a Period. Empty means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodMonth, PeriodTotal:
		return Period(s), nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", domain.ErrInvalidPeriod, s)
	}
}

// Budget is a snapshot of the token budget for one window.
// A zero Limit means the provider runs without a cap.
type Budget struct {
	Limit     int64
	Used      int64
	Remaining int64
	ResetsAt  int64 // unix millis, zero when the window never resets
}

// Unlimited reports whether no cap is configured for the window.
func (b Budget) Unlimited() bool { return b.Limit <= 0 }

// Exhausted reports whether a capped window has no tokens left.
func (b Budget) Exhausted() bool { return !b.Unlimited() && b.Remaining <= 0 }

// Report describes embedding token spend of one provider over a window.
type Report struct {
	period      Period
	provider    string
	periodStart int64
	periodEnd   int64
	budget      Budget
}

// NewReport creates a usage report. start and end are unix millis.
func NewReport(period Period, provider string, start, end int64, b Budget) Report {
	return Report{
		period:      period,
		provider:    provider,
		periodStart: start,
		periodEnd:   end,
		budget:      b,
	}
}

// Period returns the reporting window.
func (r *Report) Period() Period { return r.period }

// Provider returns the embedding provider name.
func (r *Report) Provider() string { return r.provider }

// PeriodStart returns the window start (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the window end (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Budget returns the budget snapshot.
func (r *Report) Budget() Budget { return r.budget }
