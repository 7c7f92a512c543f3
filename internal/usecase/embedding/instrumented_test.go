package embedding

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	"github.com/kailas-cloud/smartdesk/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// fakeProvider returns a fixed vector and bills tokensPerText for every text.
type fakeProvider struct {
	vec           []float32
	tokensPerText int
	err           error
	batchSizes    []int
}

func (f *fakeProvider) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, PromptTokens: f.tokensPerText, TotalTokens: f.tokensPerText}, nil
}

func (f *fakeProvider) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = f.vec
	}
	out.PromptTokens = f.tokensPerText * len(texts)
	out.TotalTokens = out.PromptTokens
	return out, nil
}

// singleOnly has no batch path.
type singleOnly struct {
	calls int
}

func (s *singleOnly) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 5}, nil
}

func TestEmbed_PassesThrough(t *testing.T) {
	p := NewInstrumentedEmbedder(&fakeProvider{vec: []float32{0.1, 0.2, 0.3}, tokensPerText: 7}, "openai", "m", nil, nil)

	res, err := p.Embed(context.Background(), "reset my password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 7 {
		t.Errorf("result = %+v", res)
	}
	if p.Provider() != "openai" {
		t.Errorf("Provider() = %q", p.Provider())
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	boom := errors.New("api error")
	p := NewInstrumentedEmbedder(&fakeProvider{err: boom}, "openai", "m", nil, nil)

	if _, err := p.Embed(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestEmbed_BudgetRejects(t *testing.T) {
	budget := NewBudgetTracker(BudgetConfig{Provider: "reject", DailyLimit: 100, Action: BudgetActionReject}, nil)
	budget.Record(100)
	inner := &fakeProvider{vec: []float32{1}}
	p := NewInstrumentedEmbedder(inner, "reject", "m", budget, nil)

	if _, err := p.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, err := p.BatchEmbed(context.Background(), []string{"a", "b"}); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error for batch, got %v", err)
	}
	if len(inner.batchSizes) != 0 {
		t.Error("provider must not be called after rejection")
	}
}

func TestEmbed_RecordsSpendAndGauges(t *testing.T) {
	budget := NewBudgetTracker(BudgetConfig{Provider: "gauge", DailyLimit: 10_000, MonthlyLimit: 100_000}, nil)
	p := NewInstrumentedEmbedder(&fakeProvider{vec: []float32{1}, tokensPerText: 500}, "gauge", "m", budget, nil)

	if _, err := p.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := budget.DailyUsed(); got != 500 {
		t.Errorf("DailyUsed() = %d, want 500", got)
	}
	gauge := metrics.EmbeddingBudgetTokensRemaining
	if got := testutil.ToFloat64(gauge.WithLabelValues("gauge", "daily")); got != 9500 {
		t.Errorf("daily gauge = %v, want 9500", got)
	}
	if got := testutil.ToFloat64(gauge.WithLabelValues("gauge", "monthly")); got != 99_500 {
		t.Errorf("monthly gauge = %v, want 99500", got)
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	inner := &fakeProvider{}
	p := NewInstrumentedEmbedder(inner, "openai", "m", nil, nil)

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if len(inner.batchSizes) != 0 {
		t.Error("provider called for empty input")
	}
}

func TestBatchEmbed_Chunks(t *testing.T) {
	inner := &fakeProvider{vec: []float32{1}, tokensPerText: 1}
	p := NewInstrumentedEmbedder(inner, "openai", "m", nil, nil)
	p.maxBatch = 2

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 5 || res.TotalTokens != 5 {
		t.Errorf("result = %d embeddings, %d tokens", len(res.Embeddings), res.TotalTokens)
	}
	want := []int{2, 2, 1}
	if len(inner.batchSizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", inner.batchSizes, want)
	}
	for i := range want {
		if inner.batchSizes[i] != want[i] {
			t.Fatalf("batch sizes = %v, want %v", inner.batchSizes, want)
		}
	}
}

func TestBatchEmbed_StopsWhenBudgetRunsOut(t *testing.T) {
	budget := NewBudgetTracker(BudgetConfig{Provider: "midway", DailyLimit: 20, Action: BudgetActionReject}, nil)
	inner := &fakeProvider{vec: []float32{1}, tokensPerText: 10}
	p := NewInstrumentedEmbedder(inner, "midway", "m", budget, nil)
	p.maxBatch = 2

	_, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c", "d"})
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if len(inner.batchSizes) != 1 {
		t.Errorf("provider calls = %d, want 1", len(inner.batchSizes))
	}
	if budget.DailyUsed() != 20 {
		t.Errorf("first chunk not recorded: used = %d", budget.DailyUsed())
	}
}

func TestBatchEmbed_FallsBackToSingle(t *testing.T) {
	inner := &singleOnly{}
	p := NewInstrumentedEmbedder(inner, "local", "tfidf", nil, nil)

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || inner.calls != 2 {
		t.Errorf("embeddings = %d, calls = %d", len(res.Embeddings), inner.calls)
	}
}

func TestBatchEmbed_ProviderError(t *testing.T) {
	boom := errors.New("api error")
	p := NewInstrumentedEmbedder(&fakeProvider{err: boom}, "openai", "m", nil, nil)

	if _, err := p.BatchEmbed(context.Background(), []string{"a"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

type preparingProvider struct {
	fakeProvider
	corpus []string
	health error
}

func (m *preparingProvider) Prepare(corpus []string) error {
	m.corpus = corpus
	return nil
}

func (m *preparingProvider) HealthCheck(_ context.Context) error { return m.health }

func TestPrepareAndHealthPassThrough(t *testing.T) {
	inner := &preparingProvider{health: errors.New("down")}
	p := NewInstrumentedEmbedder(inner, "local", "tfidf", nil, nil)

	if err := domain.Prepare(p, []string{"a", "b"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(inner.corpus) != 2 {
		t.Errorf("corpus not forwarded: %v", inner.corpus)
	}
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Error("expected health error to propagate")
	}

	plain := NewInstrumentedEmbedder(&singleOnly{}, "openai", "m", nil, nil)
	if err := plain.Prepare([]string{"a"}); err != nil {
		t.Errorf("plain Prepare: %v", err)
	}
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("plain HealthCheck: %v", err)
	}
}
