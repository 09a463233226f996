// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the settlement job.
type Metrics struct {
	// Pipeline metrics
	SettlementRunsTotal *prometheus.CounterVec // labeled by outcome
	SettlementDuration  prometheus.Histogram
	PhaseDuration       *prometheus.HistogramVec // labeled by phase

	// Volume metrics
	BuildersSettled prometheus.Counter
	ClaimsCommitted prometheus.Counter
	ReceiptsWritten prometheus.Counter

	// Chain metrics
	RegistryErrors prometheus.Counter
	FundingErrors  prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "scout_settlement"
	}

	return &Metrics{
		SettlementRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Settlement runs by outcome (settled, already_settled, failed).",
		}, []string{"outcome"}),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end settlement run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		PhaseDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each settlement phase.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"phase"}),
		BuildersSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builders_settled_total",
			Help:      "Builders that received a payout.",
		}),
		ClaimsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_committed_total",
			Help:      "Aggregated claims committed to Merkle batches.",
		}),
		ReceiptsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_written_total",
			Help:      "Audit-trail receipts persisted.",
		}),
		RegistryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_errors_total",
			Help:      "Failed Merkle root registrations.",
		}),
		FundingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funding_errors_total",
			Help:      "Failed best-effort claims-pool funding calls.",
		}),
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
