package session

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce        sync.Once
	sessionsCreated    prometheus.Counter
	signaturesAccepted prometheus.Counter
	sessionsCompleted  prometheus.Counter
	completionDuration prometheus.Histogram
)

func ensureMetrics() {
	metricsOnce.Do(func() {
		sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
			Name: "docsign_sessions_created_total",
			Help: "Number of multi-signature sessions initialized",
		})
		signaturesAccepted = promauto.NewCounter(prometheus.CounterOpts{
			Name: "docsign_signatures_accepted_total",
			Help: "Number of signatures accepted into sessions",
		})
		sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
			Name: "docsign_sessions_completed_total",
			Help: "Number of sessions that reached their threshold",
		})
		completionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docsign_session_completion_seconds",
			Help:    "Time from session creation to threshold completion",
			Buckets: prometheus.ExponentialBuckets(60, 4, 10),
		})
	})
}
