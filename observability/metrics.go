// Package observability provides the Prometheus collectors for the
// authentication and error handling stages.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LookupBuckets covers user store lookups from 1ms to 5s.
var LookupBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// AuthAttemptsTotal counts authentication attempts by middleware mode
	// (strict, optional) and outcome (success or failure kind).
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitauth_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"mode", "outcome"},
	)

	// UserLookupDuration records the user store lookup latency in seconds.
	UserLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitauth_user_lookup_duration_seconds",
			Help:    "User store lookup duration",
			Buckets: LookupBuckets,
		},
	)

	// ErrorsTotal counts normalized error responses by kind and status.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitauth_errors_total",
			Help: "Normalized error responses",
		},
		[]string{"kind", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		AuthAttemptsTotal,
		UserLookupDuration,
		ErrorsTotal,
	)
}
