package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockKnowledge struct {
	ready bool
}

func (m *mockKnowledge) Ready() bool { return m.ready }

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck(t *testing.T) {
	dbDown := errors.New("conn refused")
	embDown := errors.New("timeout")

	tests := []struct {
		name       string
		db         error
		embedding  EmbeddingChecker
		knowledge  KnowledgeChecker
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			embedding:  &mockEmbeddingChecker{},
			knowledge:  &mockKnowledge{ready: true},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK, CheckEmbedding: CheckOK, CheckKnowledge: CheckOK},
		},
		{
			name:       "db error",
			db:         dbDown,
			embedding:  &mockEmbeddingChecker{},
			knowledge:  &mockKnowledge{ready: true},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckError, CheckEmbedding: CheckOK, CheckKnowledge: CheckOK},
		},
		{
			name:       "embedding error",
			embedding:  &mockEmbeddingChecker{err: embDown},
			knowledge:  &mockKnowledge{ready: true},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK, CheckEmbedding: CheckError, CheckKnowledge: CheckOK},
		},
		{
			name:       "knowledge not built",
			embedding:  &mockEmbeddingChecker{},
			knowledge:  &mockKnowledge{},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK, CheckEmbedding: CheckOK, CheckKnowledge: CheckError},
		},
		{
			name:       "everything down",
			db:         dbDown,
			embedding:  &mockEmbeddingChecker{err: embDown},
			knowledge:  &mockKnowledge{},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckError, CheckEmbedding: CheckError, CheckKnowledge: CheckError},
		},
		{
			name:       "db only",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK},
		},
		{
			name:       "db only, down",
			db:         dbDown,
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockDBPinger{err: tt.db}, tt.embedding, tt.knowledge)
			r := svc.Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("expected %q, got %q", tt.wantStatus, r.Status)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Errorf("expected %d checks, got %v", len(tt.wantChecks), r.Checks)
			}
			for name, want := range tt.wantChecks {
				if r.Checks[name] != want {
					t.Errorf("%s: expected %q, got %q", name, want, r.Checks[name])
				}
			}
		})
	}
}

func TestCheck_ProbeTimeout(t *testing.T) {
	svc := New(blockingPinger{}, nil, nil)
	svc.timeout = 10 * time.Millisecond

	r := svc.Check(context.Background())
	if r.Checks[CheckDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[CheckDatabase])
	}
}

func TestCheck_ProbesRunConcurrently(t *testing.T) {
	svc := New(blockingPinger{}, blockingChecker{}, nil)
	svc.timeout = 50 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())
	if elapsed := time.Since(start); elapsed >= 100*time.Millisecond {
		t.Errorf("probes ran one after another: %v", elapsed)
	}
	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

type blockingChecker struct{}

func (blockingChecker) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
