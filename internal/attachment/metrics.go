package attachment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_store_operations_total",
			Help: "Attachment store calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attachment_store_operation_duration_seconds",
			Help:    "Attachment store call latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	cleanupIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_cleanup_intents_total",
			Help: "Cleanup intents by event (recorded, resolved, failed)",
		},
		[]string{"event"},
	)
)

const (
	opCreate = "create"
	opGrant  = "grant_public_read"
	opGet    = "get"
	opDelete = "delete"

	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// observe records one store call.
func observe(operation, outcome string, started time.Time) {
	storeOperationsTotal.WithLabelValues(operation, outcome).Inc()
	storeOperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
