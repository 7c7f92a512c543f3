package smartdesk

import (
	"context"
	"sort"

	healthuc "github.com/kailas-cloud/smartdesk/internal/usecase/health"
)

// HealthState is the state of the whole client or of one component.
type HealthState string

// Health states. Components are only ever HealthOK or HealthError.
const (
	HealthOK       HealthState = "ok"
	HealthDegraded HealthState = "degraded"
	HealthError    HealthState = "error"
)

// HealthStatus is the result of Client.Health.
type HealthStatus struct {
	Status HealthState
	Checks map[string]HealthState // "database", "embedding", "knowledge"
}

// Failing lists the components whose probe failed, sorted by name.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, state := range h.Checks {
		if state != HealthOK {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health probes the database, the embedder and the knowledge index.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]HealthState, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = HealthState(result)
	}
	return HealthStatus{Status: HealthState(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
