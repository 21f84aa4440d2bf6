// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RostersOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_rosters_opened_total",
		Help: "Marking sessions opened, by mode.",
	}, []string{"mode"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_submissions_total",
		Help: "Attendance submissions, by outcome.",
	}, []string{"outcome"})

	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_confirmations_total",
		Help: "Resolved confirmation prompts, by kind and decision.",
	}, []string{"kind", "decision"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rollcall_upstream_request_seconds",
		Help:    "Latency of academy API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	JournalWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_journal_writes_total",
		Help: "Submission journal writes by the worker, by outcome.",
	}, []string{"outcome"})
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
