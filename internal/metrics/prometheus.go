package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "umi"

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0}

// PrometheusMetrics registers collectors on first use of each name.
type PrometheusMetrics struct {
	registry   *prometheus.Registry
	factory    promauto.Factory
	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var _ Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a backend with its own registry. A nil
// registry creates a fresh one.
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &PrometheusMetrics{
		registry:   registry,
		factory:    promauto.With(registry),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Registry returns the registry collectors are registered on.
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusMetrics) Initialize(context.Context) error { return nil }
func (p *PrometheusMetrics) Flush(context.Context) error      { return nil }
func (p *PrometheusMetrics) Shutdown(context.Context) error   { return nil }

// UpdateGauge sets a gauge.
func (p *PrometheusMetrics) UpdateGauge(_ context.Context, name string, value float64) error {
	p.mu.Lock()
	g, ok := p.gauges[name]
	if !ok {
		g = p.factory.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: name})
		p.gauges[name] = g
	}
	p.mu.Unlock()
	g.Set(value)
	return nil
}

// IncrementCounter adds to a counter.
func (p *PrometheusMetrics) IncrementCounter(_ context.Context, name string, value uint64) error {
	p.mu.Lock()
	c, ok := p.counters[name]
	if !ok {
		c = p.factory.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: name})
		p.counters[name] = c
	}
	p.mu.Unlock()
	c.Add(float64(value))
	return nil
}

// RecordHistogram observes a value.
func (p *PrometheusMetrics) RecordHistogram(_ context.Context, name string, value float64) error {
	p.mu.Lock()
	h, ok := p.histograms[name]
	if !ok {
		h = p.factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      name,
			Buckets:   durationBuckets,
		})
		p.histograms[name] = h
	}
	p.mu.Unlock()
	h.Observe(value)
	return nil
}
