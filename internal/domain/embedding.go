package domain

import (
	"context"
	"fmt"
)

// Embedder turns ticket or knowledge-base text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes several texts in one provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Preparer is implemented by embedders whose vector space depends on the corpus
// (e.g. TF-IDF). Prepare must run before the first Embed.
type Preparer interface {
	Prepare(corpus []string) error
}

// EmbeddingResult carries a vector and its token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors in input order plus aggregate usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Add appends one vector and its usage.
func (b *BatchEmbeddingResult) Add(r EmbeddingResult) {
	b.Embeddings = append(b.Embeddings, r.Embedding)
	b.PromptTokens += r.PromptTokens
	b.TotalTokens += r.TotalTokens
}

// Merge appends another batch after this one.
func (b *BatchEmbeddingResult) Merge(o BatchEmbeddingResult) {
	b.Embeddings = append(b.Embeddings, o.Embeddings...)
	b.PromptTokens += o.PromptTokens
	b.TotalTokens += o.TotalTokens
}

// BatchEmbed vectorizes texts through the native batch path when e has one,
// else one Embed per text. The result always holds len(texts) vectors.
func BatchEmbed(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	be, ok := e.(BatchEmbedder)
	if !ok {
		return EmbedEach(ctx, e, texts)
	}
	res, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), ErrEmbeddingProviderError)
	}
	return res, nil
}

// EmbedEach calls Embed once per text. It stops at the first failure or when
// ctx is done. Batch-capable adapters use it for inner embedders without a
// batch path.
func EmbedEach(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed [%d]: %w", i, err)
		}
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed [%d]: %w", i, err)
		}
		out.Add(res)
	}
	return out, nil
}

// Prepare forwards the corpus to e when it is corpus-dependent. No-op otherwise.
func Prepare(e Embedder, corpus []string) error {
	p, ok := e.(Preparer)
	if !ok {
		return nil
	}
	if err := p.Prepare(corpus); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	return nil
}
