package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"barangay-registry/internal/error/apperr"
)

var (
	// operationTotal counts registry operations by entity, operation and result
	operationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_store_operations_total",
		Help: "Total registry store operations by entity, operation and result",
	}, []string{"entity", "operation", "result"})

	// operationDuration tracks registry operation latency
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "registry_store_operation_duration_seconds",
		Help:    "Registry store operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"entity", "operation"})

	// reindexedResidents counts age index moves made by reindexing
	reindexedResidents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_age_reindexed_residents_total",
		Help: "Residents moved to a new age index entry by reindexing",
	})
)

// Result labels
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultConflict    = "conflict"
	ResultValidation  = "validation"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// Result classifies err into a result label
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, apperr.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, apperr.ErrConflict):
		return ResultConflict
	case errors.Is(err, apperr.ErrValidation):
		return ResultValidation
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return ResultUnavailable
	default:
		return ResultError
	}
}

// Observe records one operation started at start. Use with defer:
//
//	defer func() { metrics.Observe("household", "create", start, err) }()
func Observe(entity, operation string, start time.Time, err error) {
	operationTotal.WithLabelValues(entity, operation, Result(err)).Inc()
	operationDuration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

// AddReindexed records residents moved by an age reindex
func AddReindexed(n int) {
	if n > 0 {
		reindexedResidents.Add(float64(n))
	}
}
