// Package metrics records operational counters for ledger calls and
// confirmations.
//
// Metrics is the backend-neutral interface the rest of go-umi talks to.
// Collection fans out to several backends; NoopMetrics, LogMetrics and
// PrometheusMetrics are the bundled implementations.
package metrics

import (
	"context"
	"log/slog"
	"sync"
)

// Metrics defines the interface for collecting client metrics.
type Metrics interface {
	// Initialize prepares the backend for data collection.
	Initialize(ctx context.Context) error

	// Flush sends any buffered metrics data.
	Flush(ctx context.Context) error

	// Shutdown releases backend resources.
	Shutdown(ctx context.Context) error

	// UpdateGauge sets a gauge metric to the specified value.
	UpdateGauge(ctx context.Context, name string, value float64) error

	// IncrementCounter increments a counter metric by the specified value.
	IncrementCounter(ctx context.Context, name string, value uint64) error

	// RecordHistogram records a value in a histogram metric.
	RecordHistogram(ctx context.Context, name string, value float64) error
}

// Metric names.
const (
	MetricRPCCalls            = "rpc_calls_total"
	MetricRPCFailures         = "rpc_failures_total"
	MetricRPCRetries          = "rpc_retries_total"
	MetricRPCCallDuration     = "rpc_call_duration_seconds"
	MetricTransactionsSent    = "transactions_sent_total"
	MetricSendFailures        = "transaction_send_failures_total"
	MetricProgramErrors       = "program_errors_resolved_total"
	MetricConfirmationsActive = "confirmations_active"
	MetricConfirmDuration     = "confirmation_duration_seconds"
	MetricConfirmPolls        = "confirmation_polls_total"
	MetricJournalRechecked    = "journal_rechecked_total"
)

// ConfirmationOutcome returns the counter name for a confirmation outcome
// such as "finalized" or "expired".
func ConfirmationOutcome(outcome string) string {
	return "confirmations_" + outcome + "_total"
}

// Collection manages multiple Metrics implementations and delegates calls to all of them.
type Collection struct {
	metrics []Metrics
	mu      sync.RWMutex
}

var _ Metrics = (*Collection)(nil)

// NewCollection creates a new Collection with the given metrics implementations.
func NewCollection(metrics ...Metrics) *Collection {
	return &Collection{
		metrics: metrics,
	}
}

// Add adds a new Metrics implementation to the collection.
func (c *Collection) Add(m Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = append(c.metrics, m)
}

// Len returns the number of backends in the collection.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metrics)
}

func (c *Collection) each(fn func(Metrics) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.metrics {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// Initialize initializes every backend.
func (c *Collection) Initialize(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Initialize(ctx) })
}

// Flush flushes every backend.
func (c *Collection) Flush(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Flush(ctx) })
}

// Shutdown shuts every backend down.
func (c *Collection) Shutdown(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Shutdown(ctx) })
}

// UpdateGauge updates a gauge on every backend.
func (c *Collection) UpdateGauge(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.UpdateGauge(ctx, name, value) })
}

// IncrementCounter increments a counter on every backend.
func (c *Collection) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return c.each(func(m Metrics) error { return m.IncrementCounter(ctx, name, value) })
}

// RecordHistogram records a histogram value on every backend.
func (c *Collection) RecordHistogram(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.RecordHistogram(ctx, name, value) })
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

// NewNoopMetrics creates a new NoopMetrics.
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) Initialize(context.Context) error                       { return nil }
func (n *NoopMetrics) Flush(context.Context) error                            { return nil }
func (n *NoopMetrics) Shutdown(context.Context) error                         { return nil }
func (n *NoopMetrics) UpdateGauge(context.Context, string, float64) error     { return nil }
func (n *NoopMetrics) IncrementCounter(context.Context, string, uint64) error { return nil }
func (n *NoopMetrics) RecordHistogram(context.Context, string, float64) error { return nil }

// LogMetrics keeps metric values in memory and reports them through slog.
type LogMetrics struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	gauges   map[string]float64
	counters map[string]uint64
}

// NewLogMetrics creates a new LogMetrics with the given logger.
// If logger is nil, the default logger is used.
func NewLogMetrics(logger *slog.Logger) *LogMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMetrics{
		logger:   logger,
		gauges:   make(map[string]float64),
		counters: make(map[string]uint64),
	}
}

// Initialize initializes the log metrics.
func (l *LogMetrics) Initialize(ctx context.Context) error {
	l.logger.DebugContext(ctx, "metrics initialized")
	return nil
}

// Flush logs all current metric values.
func (l *LogMetrics) Flush(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	l.logger.InfoContext(ctx, "metrics flush",
		"gauges", l.gauges,
		"counters", l.counters,
	)
	return nil
}

// Shutdown shuts down the log metrics.
func (l *LogMetrics) Shutdown(ctx context.Context) error {
	return l.Flush(ctx)
}

// UpdateGauge stores and logs the gauge value.
func (l *LogMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gauges[name] = value
	l.logger.DebugContext(ctx, "gauge updated", "name", name, "value", value)
	return nil
}

// IncrementCounter adds to and logs the counter.
func (l *LogMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counters[name] += value
	l.logger.DebugContext(ctx, "counter incremented", "name", name, "value", value, "total", l.counters[name])
	return nil
}

// RecordHistogram logs the observation.
func (l *LogMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	l.logger.DebugContext(ctx, "histogram recorded", "name", name, "value", value)
	return nil
}

// Counter returns the current value of a counter.
func (l *LogMetrics) Counter(name string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counters[name]
}

// Gauge returns the current value of a gauge.
func (l *LogMetrics) Gauge(name string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gauges[name]
}
