package run

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmohr/treereduce/pkg/api"
)

const metricsNamespace = "treereduce"

// Metrics exposes the progress of a run on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	checks         *prometheus.CounterVec
	cacheHits      prometheus.Counter
	oracleDuration prometheus.Histogram
	currentSize    prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "checks_total",
				Help:      "Total number of oracle invocations by result",
			},
			[]string{"result"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Total number of candidates answered from the cache",
		}),
		oracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "oracle_duration_seconds",
			Help:      "Time spent in a single oracle invocation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		currentSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "current_size",
			Help:      "Size in characters of the smallest successful candidate",
		}),
	}
	m.Registry.MustRegister(m.checks, m.cacheHits, m.oracleDuration, m.currentSize)
	return m
}

func (m *Metrics) observeCheck(result api.Result, duration time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(string(result)).Inc()
	m.oracleDuration.Observe(duration.Seconds())
}

func (m *Metrics) observeCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) observeSize(size int) {
	if m == nil {
		return
	}
	m.currentSize.Set(float64(size))
}

// WriteToTextfile writes all metrics in the text exposition format, e.g. for
// the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(file string) error {
	return prometheus.WriteToTextfile(file, m.Registry)
}
