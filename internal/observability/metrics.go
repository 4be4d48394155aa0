package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	FetchAttempts  *prometheus.CounterVec // labels: feed, outcome={success,failure}
	FeedFailures   *prometheus.CounterVec // labels: feed, retry budget exhausted
	ItemsStored    *prometheus.CounterVec // labels: feed
	Duplicates     *prometheus.CounterVec // labels: feed
	ItemsSkipped   *prometheus.CounterVec // labels: feed, reason={bad_timestamp,stale,store}
	Notifications  *prometheus.CounterVec // labels: channel, outcome={success,failure}
	ExtremeSamples prometheus.Counter

	TickDuration prometheus.Histogram
	TickRunning  prometheus.Gauge
	LastTickNew  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchAttempts,
		m.FeedFailures,
		m.ItemsStored,
		m.Duplicates,
		m.ItemsSkipped,
		m.Notifications,
		m.ExtremeSamples,
		m.TickDuration,
		m.TickRunning,
		m.LastTickNew,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "fetch_attempts_total",
			Help:      "Feed fetch attempts by feed kind and outcome.",
		}, []string{"feed", "outcome"}),
		FeedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "feed_failures_total",
			Help:      "Feeds whose retry budget was exhausted within a tick.",
		}, []string{"feed"}),
		ItemsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "items_stored_total",
			Help:      "Newly stored records by feed kind.",
		}, []string{"feed"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "duplicates_total",
			Help:      "Records already present in the store, by feed kind.",
		}, []string{"feed"}),
		ItemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "items_skipped_total",
			Help:      "Records skipped by feed kind and reason.",
		}, []string{"feed", "reason"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "notifications_total",
			Help:      "Notification sends by channel and outcome.",
		}, []string{"channel", "outcome"}),
		ExtremeSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_monitor",
			Name:      "extreme_samples_total",
			Help:      "Forecast samples classified as extreme.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_monitor",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a complete orchestrator tick.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		TickRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_monitor",
			Name:      "tick_running",
			Help:      "1 while a tick is executing, 0 otherwise.",
		}),
		LastTickNew: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_monitor",
			Name:      "last_tick_new_items",
			Help:      "Total new items observed by the most recent tick.",
		}),
	}
}
