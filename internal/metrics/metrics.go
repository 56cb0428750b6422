// Package metrics exposes Prometheus instrumentation for oracle calls,
// handler latency and scoring distributions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seed_eval",
		Name:      "oracle_requests_total",
		Help:      "Oracle requests by task and outcome.",
	}, []string{"task", "status"})

	OracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seed_eval",
		Name:      "oracle_request_duration_seconds",
		Help:      "Oracle request latency by task.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"task"})

	HandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seed_eval",
		Name:      "handler_duration_milliseconds",
		Help:      "Handler-under-test latency by side (oracle, rule, tested).",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
	}, []string{"side"})

	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seed_eval",
		Name:      "handler_failures_total",
		Help:      "Handler invocations that returned an error or panicked.",
	}, []string{"side"})

	AgreementScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "seed_eval",
		Name:      "agreement_score",
		Help:      "Agreement score between oracle-backed and rule-based outputs.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	GradingScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "seed_eval",
		Name:      "grading_score",
		Help:      "Rubric score assigned to persona test results.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
