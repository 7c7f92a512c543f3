package health

import "context"

// DBPinger is the database probe; the store's PING.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker is implemented by providers that can probe their remote API.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// KnowledgeChecker reports whether the knowledge index has been built.
// Triage answers with ErrKnowledgeIndexNotReady until it has.
type KnowledgeChecker interface {
	Ready() bool
}
