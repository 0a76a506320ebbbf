// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the watcher.
type Metrics struct {
	// Stream metrics
	WSMessages        prometheus.Counter
	Reconnects        prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	PrefilterRejects  prometheus.Counter

	// Processing metrics
	FetchFailures prometheus.Counter
	FactsDecoded  prometheus.Counter
	AlertsTotal   *prometheus.CounterVec
	NotifyErrors  prometheus.Counter

	// Latency metrics
	FetchDuration prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastEventTimestamp prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lp_watch"
	}

	return &Metrics{
		WSMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_messages_total",
			Help:      "Total number of WebSocket log notifications received",
		}),
		Reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnect attempts",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of duplicate signatures skipped",
		}),
		PrefilterRejects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "prefilter_rejects_total",
			Help:      "Total number of notifications rejected by the log pre-filter",
		}),

		FetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processing",
			Name:      "fetch_failures_total",
			Help:      "Total number of transaction fetches that exhausted retries",
		}),
		FactsDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processing",
			Name:      "facts_decoded_total",
			Help:      "Total number of liquidity additions decoded",
		}),
		AlertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processing",
			Name:      "alerts_total",
			Help:      "Total number of alerts by priority",
		}, []string{"priority"}),
		NotifyErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processing",
			Name:      "notify_errors_total",
			Help:      "Total number of alert delivery failures",
		}),

		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "fetch_duration_seconds",
			Help:      "getTransaction fetch duration in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastEventTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_event_timestamp",
			Help:      "Unix timestamp of the last decoded liquidity addition",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordWSMessage increments the notifications counter.
func RecordWSMessage() {
	DefaultMetrics.WSMessages.Inc()
}

// RecordReconnect increments the reconnects counter.
func RecordReconnect() {
	DefaultMetrics.Reconnects.Inc()
}

// RecordDuplicateSkipped increments the duplicates counter.
func RecordDuplicateSkipped() {
	DefaultMetrics.DuplicatesSkipped.Inc()
}

// RecordPrefilterReject increments the pre-filter rejects counter.
func RecordPrefilterReject() {
	DefaultMetrics.PrefilterRejects.Inc()
}

// RecordFetchFailure increments the fetch failures counter.
func RecordFetchFailure() {
	DefaultMetrics.FetchFailures.Inc()
}

// RecordFetchDuration records one transaction fetch.
func RecordFetchDuration(d time.Duration) {
	DefaultMetrics.FetchDuration.Observe(d.Seconds())
}

// RecordFactDecoded increments the decoded facts counter and bumps the
// health timestamp.
func RecordFactDecoded() {
	DefaultMetrics.FactsDecoded.Inc()
	DefaultMetrics.LastEventTimestamp.Set(float64(time.Now().Unix()))
}

// RecordAlert increments the alerts counter for a priority.
func RecordAlert(priority string) {
	if priority == "" {
		priority = "NONE"
	}
	DefaultMetrics.AlertsTotal.WithLabelValues(priority).Inc()
}

// RecordNotifyError increments the delivery failures counter.
func RecordNotifyError() {
	DefaultMetrics.NotifyErrors.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
