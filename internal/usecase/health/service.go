package health

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/smartdesk/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names as reported in Report.Checks.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
	CheckKnowledge = "knowledge"
)

const defaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// probe is one named component check.
type probe struct {
	name string
	run  func(context.Context) error
}

// Service runs the component probes for /health.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. embedding and knowledge can be nil.
func New(db DBPinger, embedding EmbeddingChecker, knowledge KnowledgeChecker) *Service {
	probes := []probe{{CheckDatabase, db.Ping}}
	if embedding != nil {
		probes = append(probes, probe{CheckEmbedding, embedding.HealthCheck})
	}
	if knowledge != nil {
		probes = append(probes, probe{CheckKnowledge, func(context.Context) error {
			if !knowledge.Ready() {
				return domain.ErrKnowledgeIndexNotReady
			}
			return nil
		}})
	}
	return &Service{probes: probes, timeout: defaultCheckTimeout}
}

// Check runs every probe concurrently, each under its own timeout, and folds
// the results: all passing is Healthy, all failing Unhealthy, else Degraded.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.probes))
	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.run(ctx, p)
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.probes))
	failed := 0
	for i, p := range s.probes {
		checks[p.name] = results[i]
		if results[i] == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, p probe) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := p.run(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
