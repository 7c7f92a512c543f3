package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ticket triage metrics.
var (
	TicketsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_total",
			Help:      "Tickets processed by outcome and deciding rule",
		},
		[]string{"status", "rule"},
	)

	TriageDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "triage_duration_seconds",
			Help:      "End-to-end ticket triage duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	PlanUpgradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_upgrades_total",
			Help:      "Plan changes applied by the upgrade rule",
		},
		[]string{"plan"},
	)

	// KnowledgeDistance observes the nearest-entry distance of every searched ticket,
	// matched or not, so the threshold can be tuned from production data.
	KnowledgeDistance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "match_distance",
			Help:      "Squared L2 distance between a ticket and its nearest knowledge entry",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 2, 4},
		},
	)

	KnowledgeEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "entries",
			Help:      "Entries in the indexed knowledge base",
		},
	)
)
