// Package metrics holds the Prometheus collectors of the service.
// Collectors are package globals; Register adds them to the default registry once.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smartdesk"

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,

			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingCacheTotal,

			TicketsTotal,
			KnowledgeDistance,
			KnowledgeEntries,
			TriageDuration,
			PlanUpgradesTotal,
		)
	})
}
