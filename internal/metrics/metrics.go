// Package metrics holds the Prometheus collectors of the account ledger.
// Collectors register with the default registry; /metrics serves them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger ─────────────────────────────────────────────────────────────────

// MovementsPosted counts movements written to a ledger, by kind.
var MovementsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "movements",
	Name:      "posted_total",
	Help:      "Total movements posted, by kind.",
}, []string{"kind"})

// MovementsRejected counts movement requests refused before any write.
var MovementsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "movements",
	Name:      "rejected_total",
	Help:      "Total movement requests rejected, by reason.",
}, []string{"reason"})

// LedgerConflicts counts conditional writes that lost to a concurrent writer.
var LedgerConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "movements",
	Name:      "conflicts_total",
	Help:      "Total conditional appends retried after a concurrent modification.",
})

// ─── Registry ───────────────────────────────────────────────────────────────

// AccountsCreated counts accounts persisted.
var AccountsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "accounts",
	Name:      "created_total",
	Help:      "Total accounts created.",
})

// AccountsRejected counts account creations refused, by reason.
var AccountsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "accounts",
	Name:      "rejected_total",
	Help:      "Total account creations rejected, by reason.",
}, []string{"reason"})

// ─── Customer service ───────────────────────────────────────────────────────

// OracleRequests counts customer service lookups by operation and outcome.
var OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "customer_service",
	Name:      "requests_total",
	Help:      "Total customer service lookups, by operation and outcome.",
}, []string{"operation", "outcome"})

// OracleLatency tracks customer service lookup latency.
var OracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "ledger",
	Subsystem: "customer_service",
	Name:      "latency_seconds",
	Help:      "Customer service lookup latency in seconds.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
}, []string{"operation"})

// ObserveOracle records one customer service lookup.
func ObserveOracle(operation, outcome string, started time.Time) {
	OracleRequests.WithLabelValues(operation, outcome).Inc()
	OracleLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
