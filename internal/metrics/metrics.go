package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roombook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Booking admission decisions by operation and outcome (accepted or rejection reason).",
		},
		[]string{"operation", "outcome"},
	)

	reconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_rows_total",
			Help:      "Booking and cancellation rows rewritten by identity reconciliation.",
		},
		[]string{"operation"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, admissions, reconciled)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveAdmission counts one create/edit decision.
func ObserveAdmission(operation, outcome string) {
	admissions.WithLabelValues(operation, outcome).Inc()
}

// AddReconciled adds rewritten rows for merge or dedup.
func AddReconciled(operation string, rows int64) {
	if rows <= 0 {
		return
	}
	reconciled.WithLabelValues(operation).Add(float64(rows))
}
