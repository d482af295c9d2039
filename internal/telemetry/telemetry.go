// Package telemetry defines the Prometheus metrics exposed by the service.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmtrack_fetch_total",
			Help: "Total source fetches, labeled by source host and outcome.",
		},
		[]string{"source", "outcome"},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firmtrack_fetch_duration_seconds",
			Help:    "Latency of source fetches, labeled by source host.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	parseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmtrack_parse_failures_total",
			Help: "Documents whose expected structure was missing, labeled by document kind.",
		},
		[]string{"doc"},
	)

	buildsAdvancedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmtrack_builds_advanced_total",
			Help: "Confirmed build advances persisted, labeled by build kind.",
		},
		[]string{"kind"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmtrack_notifications_total",
			Help: "Notification deliveries, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmtrack_sync_runs_total",
			Help: "Synchronization passes, labeled by flow and outcome.",
		},
		[]string{"flow", "outcome"},
	)
)

// ObserveFetch records one source fetch attempt.
func ObserveFetch(source, outcome string, d time.Duration) {
	fetchTotal.WithLabelValues(source, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// CountParseFailure records a document with missing structure.
func CountParseFailure(doc string) {
	parseFailuresTotal.WithLabelValues(doc).Inc()
}

// CountBuildAdvance records one confirmed build advance.
func CountBuildAdvance(kind string) {
	buildsAdvancedTotal.WithLabelValues(kind).Inc()
}

// CountNotification records one notification delivery attempt outcome.
func CountNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// CountSyncRun records the outcome of a synchronization pass.
func CountSyncRun(flow, outcome string) {
	syncRunsTotal.WithLabelValues(flow, outcome).Inc()
}
