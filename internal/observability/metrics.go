package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the fusion service.
type Metrics struct {
	// Feed metrics.
	FeedRequests *prometheus.CounterVec   // labels: feed, outcome={success,transport,schema,empty}
	FeedDuration *prometheus.HistogramVec // labels: feed
	FeedFallback *prometheus.GaugeVec     // labels: feed; 1 while the feed is serving a fallback
	CacheLookups *prometheus.CounterVec   // labels: feed, result={hit,miss}

	// Cycle metrics.
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	RunnerActive  prometheus.Gauge

	// Latest derived values.
	EII     prometheus.Gauge
	CCI     prometheus.Gauge
	KpIndex prometheus.Gauge
	Psi     prometheus.Gauge

	// Sink metrics.
	SinkErrors *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedDuration,
		m.FeedFallback,
		m.CacheLookups,
		m.CyclesTotal,
		m.CycleDuration,
		m.RunnerActive,
		m.EII,
		m.CCI,
		m.KpIndex,
		m.Psi,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "continuum",
			Name:      "feed_requests_total",
			Help:      "Upstream feed requests by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "continuum",
			Name:      "feed_request_duration_seconds",
			Help:      "Upstream feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"feed"}),
		FeedFallback: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "continuum",
			Name:      "feed_fallback",
			Help:      "1 when the feed's latest value is a fallback, 0 when live.",
		}, []string{"feed"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "continuum",
			Name:      "cache_lookups_total",
			Help:      "Feed cache lookups by feed and result.",
		}, []string{"feed", "result"}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "continuum",
			Name:      "cycles_total",
			Help:      "Total completed refresh cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "continuum",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-evaluate-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RunnerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "continuum",
			Name:      "runner_active",
			Help:      "1 when the refresh loop is scheduled, 0 when stopped.",
		}),
		EII: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "continuum",
			Name:      "eii",
			Help:      "Energetic Instability Index of the latest snapshot.",
		}),
		CCI: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "continuum",
			Name:      "cci",
			Help:      "Continuum Coherence Index of the latest snapshot.",
		}),
		KpIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "continuum",
			Name:      "kp_index",
			Help:      "Planetary K-index of the latest snapshot.",
		}),
		Psi: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "continuum",
			Name:      "psi",
			Help:      "Operator-supplied psi_s used by the latest snapshot.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "continuum",
			Name:      "sink_errors_total",
			Help:      "Snapshot publish failures by sink.",
		}, []string{"sink"}),
	}
}
