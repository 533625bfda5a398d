package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records password authentication attempts by result
	// (success|failure|locked).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secureauth_auth_attempts_total",
			Help: "Total number of password authentication attempts",
		},
		[]string{"result"},
	)

	// MFAVerifications counts second-factor verifications by method
	// (totp|backup_code) and result (success|failure).
	MFAVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secureauth_mfa_verifications_total",
			Help: "Total number of MFA verification attempts",
		},
		[]string{"method", "result"},
	)

	// Signups counts account creations by result (success|conflict|failure).
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secureauth_signups_total",
			Help: "Total number of signup attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secureauth_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
