package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionFansOut(t *testing.T) {
	ctx := context.Background()
	a := NewLogMetrics(nil)
	b := NewLogMetrics(nil)
	c := NewCollection(a)
	c.Add(b)
	c.Add(NewNoopMetrics())
	assert.Equal(t, 3, c.Len())

	require.NoError(t, c.Initialize(ctx))
	require.NoError(t, c.IncrementCounter(ctx, MetricRPCCalls, 2))
	require.NoError(t, c.IncrementCounter(ctx, MetricRPCCalls, 3))
	require.NoError(t, c.UpdateGauge(ctx, MetricConfirmationsActive, 4))
	require.NoError(t, c.RecordHistogram(ctx, MetricRPCCallDuration, 0.2))
	require.NoError(t, c.Flush(ctx))
	require.NoError(t, c.Shutdown(ctx))

	for _, m := range []*LogMetrics{a, b} {
		assert.Equal(t, uint64(5), m.Counter(MetricRPCCalls))
		assert.Equal(t, 4.0, m.Gauge(MetricConfirmationsActive))
	}
}

func TestPrometheusMetrics(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheusMetrics(nil)

	require.NoError(t, p.IncrementCounter(ctx, MetricRPCCalls, 1))
	require.NoError(t, p.IncrementCounter(ctx, MetricRPCCalls, 2))
	require.NoError(t, p.IncrementCounter(ctx, ConfirmationOutcome("finalized"), 1))
	require.NoError(t, p.UpdateGauge(ctx, MetricConfirmationsActive, 1))
	require.NoError(t, p.RecordHistogram(ctx, MetricConfirmDuration, 1.5))

	families, err := p.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		m := f.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			values[f.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			values[f.GetName()] = m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			values[f.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}
	assert.Equal(t, 3.0, values["umi_rpc_calls_total"])
	assert.Equal(t, 1.0, values["umi_confirmations_finalized_total"])
	assert.Equal(t, 1.0, values["umi_confirmations_active"])
	assert.Equal(t, 1.0, values["umi_confirmation_duration_seconds"])

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "umi_rpc_calls_total 3")
}
