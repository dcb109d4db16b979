package metrics

import (
	"errors"
	"storefront_server/lib"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for StoreOperations.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeForeignKey = "foreign_key"
	OutcomeNotFound   = "not_found"
	OutcomeDenied     = "denied"
	OutcomeError      = "error"
)

var (
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by entity, operation and outcome",
		},
		[]string{"entity", "operation", "outcome"},
	)

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"entity", "operation"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "SQL query latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Catalog cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// Collectors returns every collector of this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{StoreOperations, StoreDuration, QueryDuration, CacheRequests}
}

// Register adds the collectors to reg. Already registered collectors are ignored so that
// repeated service construction in one process is safe.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveOperation records one store operation that started at start and ended with err.
func ObserveOperation(entity, operation string, start time.Time, err error) {
	StoreOperations.WithLabelValues(entity, operation, Outcome(err)).Inc()
	StoreDuration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

// Outcome classifies err into one of the Outcome* labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case lib.IsValidationError(err):
		return OutcomeValidation
	case lib.IsUniqueViolation(err):
		return OutcomeConflict
	case lib.IsForeignKeyViolation(err):
		return OutcomeForeignKey
	case lib.IsNotFound(err):
		return OutcomeNotFound
	case errors.Is(err, lib.ErrInvalidCredentials):
		return OutcomeDenied
	default:
		return OutcomeError
	}
}
