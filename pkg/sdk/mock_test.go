package smartdesk

import (
	"context"
	"strings"

	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/smartdesk/internal/domain/ticket"
	domtriage "github.com/kailas-cloud/smartdesk/internal/domain/triage"
	healthuc "github.com/kailas-cloud/smartdesk/internal/usecase/health"
)

// --- triageUseCase mock ---

type mockTriageUC struct {
	triageFn func(ctx context.Context, t ticket.Ticket) (domtriage.Result, error)
}

func (m *mockTriageUC) Triage(ctx context.Context, t ticket.Ticket) (domtriage.Result, error) {
	return m.triageFn(ctx, t)
}

// --- accountUseCase mock ---

type mockAccountUC struct {
	getFn  func(ctx context.Context, userID string) (domacct.Settings, error)
	putFn  func(ctx context.Context, userID string, s domacct.Settings) error
	planFn func(ctx context.Context, userID, plan string) error
}

func (m *mockAccountUC) Get(ctx context.Context, userID string) (domacct.Settings, error) {
	return m.getFn(ctx, userID)
}

func (m *mockAccountUC) Put(ctx context.Context, userID string, s domacct.Settings) error {
	return m.putFn(ctx, userID, s)
}

func (m *mockAccountUC) SetPlan(ctx context.Context, userID, plan string) error {
	return m.planFn(ctx, userID, plan)
}

// --- knowledgeUseCase mock ---

type mockKnowledgeUC struct {
	entries []domkb.Entry
}

func (m *mockKnowledgeUC) Entries() []domkb.Entry { return m.entries }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- public Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// keywordEmbedder maps texts onto a two-axis space: "password" and everything else.
type keywordEmbedder struct {
	prepared []string
}

func (k *keywordEmbedder) Prepare(corpus []string) error {
	k.prepared = corpus
	return nil
}

func (k *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if strings.Contains(strings.ToLower(text), "password") {
		return EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 1}, nil
	}
	return EmbeddingResult{Embedding: []float32{0, 1}, TotalTokens: 1}, nil
}
