// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MemberOperations counts directory mutations by operation and outcome.
	MemberOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmanager",
		Subsystem: "directory",
		Name:      "operations_total",
		Help:      "Member directory operations by operation and result.",
	}, []string{"operation", "result"})

	// CheckIns counts check-in attempts by result (ok, not_eligible, duplicate, error).
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmanager",
		Subsystem: "attendance",
		Name:      "checkins_total",
		Help:      "Check-in attempts by result.",
	}, []string{"result"})

	// Logins counts authentication attempts by result (ok, invalid, throttled).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmanager",
		Subsystem: "session",
		Name:      "logins_total",
		Help:      "Authentication attempts by result.",
	}, []string{"result"})

	// RPCDuration observes handler latency by procedure and code.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitmanager",
		Subsystem: "rpc",
		Name:      "duration_seconds",
		Help:      "RPC handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})
)

// Result labels shared by the counters.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultInvalid     = "invalid"
	ResultNotFound    = "not_found"
	ResultConflict    = "conflict"
	ResultNotEligible = "not_eligible"
	ResultDuplicate   = "duplicate"
	ResultThrottled   = "throttled"
)
