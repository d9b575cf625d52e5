package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peopledb", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peopledb", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PersonOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peopledb", Name: "person_operations_total", Help: "Person repository operations by name and outcome (ok|not_found|invalid|error)."},
		[]string{"op", "outcome"},
	)
	PersonOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "peopledb", Name: "person_operation_duration_seconds", Help: "Latency of person repository operations.", Buckets: prometheus.DefBuckets},
		[]string{"op"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PersonOps)
	reg.MustRegister(PersonOpDuration)
}

// ObservePersonOp records one completed operation.
func ObservePersonOp(op, outcome string, started time.Time) {
	PersonOps.WithLabelValues(op, outcome).Inc()
	PersonOpDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
