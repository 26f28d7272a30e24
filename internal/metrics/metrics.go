// Package metrics exports scene load observations as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
)

// DurationBuckets spans 5ms to roughly 10s.
var DurationBuckets = prometheus.ExponentialBuckets(0.005, 2, 12)

// Collector turns observations into metrics on its own registry, so several
// collectors can coexist in one process.
type Collector struct {
	registry  *prometheus.Registry
	duration  *prometheus.HistogramVec
	completed *prometheus.CounterVec
	untimed   *prometheus.CounterVec
	loading   *prometheus.GaugeVec
}

// New creates a Collector whose metric names start with namespace.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scene_load_duration_seconds",
				Help:      "Time from a scene first observed loading to first observed loaded",
				Buckets:   DurationBuckets,
			},
			[]string{"scene"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scene_loads_total",
				Help:      "Total number of timed scene loads",
			},
			[]string{"scene"},
		),
		untimed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scene_loads_untimed_total",
				Help:      "Scenes observed loaded without an observed start",
			},
			[]string{"scene"},
		),
		loading: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scene_loading",
				Help:      "1 while a scene is observed loading",
			},
			[]string{"scene"},
		),
	}
	c.registry.MustRegister(c.duration, c.completed, c.untimed, c.loading)
	return c
}

// Handle records one observation. It matches event.Handler and is safe for
// concurrent use.
func (c *Collector) Handle(e event.Event) {
	switch e.Kind {
	case event.KindLoadStarted:
		c.loading.WithLabelValues(e.Scene).Set(1)
	case event.KindLoadCompleted:
		c.loading.WithLabelValues(e.Scene).Set(0)
		c.completed.WithLabelValues(e.Scene).Inc()
		c.duration.WithLabelValues(e.Scene).Observe(e.Duration.Seconds())
	case event.KindLoadUntimed:
		c.loading.WithLabelValues(e.Scene).Set(0)
		c.untimed.WithLabelValues(e.Scene).Inc()
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
