// Package local provides an offline TF-IDF embedder. The vector space is
// built from the knowledge-base corpus, so Prepare must run before Embed.
package local

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/smartdesk/internal/domain"
)

// Name identifies the provider in logs and metrics.
const Name = "local"

// Model is reported as the embedding model.
const Model = "tfidf"

var errNotPrepared = errors.New("tfidf embedder not prepared")

// Embedder is a TF-IDF vectorizer with smoothed IDF and L2-normalized output.
// Safe for concurrent use; Prepare swaps the vocabulary atomically.
type Embedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	tokens     *regexp.Regexp
	stopwords  map[string]struct{}
}

// NewEmbedder creates an unprepared embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		tokens:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords: defaultStopwords(),
	}
}

// Prepare implements domain.Preparer. It builds the vocabulary and IDF
// weights from corpus. Terms are ordered alphabetically for stable dimensions.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	e.mu.Lock()
	e.vocabulary = vocab
	e.idf = idf
	e.mu.Unlock()
	return nil
}

// Dimension returns the vector size, zero before Prepare.
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idf)
}

// Embed implements domain.Embedder. Text with no known terms yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.vocabulary == nil {
		return domain.EmbeddingResult{}, errNotPrepared
	}

	tokens := e.tokenize(text)
	vec := make([]float64, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}

	if total > 0 {
		for idx, count := range tf {
			vec[idx] = float64(count) / float64(total) * e.idf[idx]
		}
		normalize(vec)
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return domain.EmbeddingResult{
		Embedding:    out,
		PromptTokens: len(tokens),
		TotalTokens:  len(tokens),
	}, nil
}

// HealthCheck implements domain.HealthChecker.
func (e *Embedder) HealthCheck(_ context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.vocabulary == nil {
		return errNotPrepared
	}
	return nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokens.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalize(vec []float64) {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in",
		"on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it",
		"this", "that", "these", "those", "from", "up", "down", "over", "under", "again",
		"further", "than", "so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can",
		"will", "just", "don", "should", "now", "i", "my", "me", "you", "your", "we", "our",
		"please",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
