package db

import "errors"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string // vector field (or alias) to query, "vector" when empty
	Vector       []float32
	K            int
	ReturnFields []string
	RawScores    bool // return the backend distance as-is instead of 1-distance
}

// VectorField returns the queried field name.
func (q *KNNQuery) VectorField() string {
	if q.Field == "" {
		return "vector"
	}
	return q.Field
}

// Validate checks the query shape shared by every backend.
func (q *KNNQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return errors.New("index name is required")
	case len(q.Vector) == 0:
		return errors.New("vector is required")
	case q.K <= 0:
		return errors.New("k must be positive")
	}
	return nil
}

// Score converts a backend distance into the score the query asked for:
// the distance itself for raw scores, else a similarity clamped to [0,1].
func (q *KNNQuery) Score(distance float64) float64 {
	if q.RawScores {
		return distance
	}
	return min(1, max(0, 1-distance))
}

// Less orders scores nearest first.
func (q *KNNQuery) Less(a, b float64) bool {
	if q.RawScores {
		return a < b
	}
	return a > b
}

// SearchResult is the output of a search, nearest first.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hash hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
