package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetricsTest(t *testing.T) (MetricsRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down meter provider: %v", err)
		}
	})

	rec, err := NewMetricsRecorderWithMeter(provider.Meter("test"))
	require.NoError(t, err)
	return rec, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordNodeExecution(t *testing.T) {
	rec, reader := setupMetricsTest(t)
	ctx := context.Background()

	rec.RecordNodeExecution(ctx, "generate_content", 10*time.Millisecond, nil)
	rec.RecordNodeExecution(ctx, "generate_content", 10*time.Millisecond, errors.New("boom"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "flowgraph.node.executions")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "flowgraph.node.errors")))
	assert.NotNil(t, findMetric(rm, "flowgraph.node.latency_ms"))
}

func TestRecordGraphRun(t *testing.T) {
	rec, reader := setupMetricsTest(t)

	rec.RecordGraphRun(context.Background(), "learning_path", true, time.Second)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "flowgraph.graph.runs")))
	assert.NotNil(t, findMetric(rm, "flowgraph.graph.latency_ms"))
}

func TestRecordGenerationAndSources(t *testing.T) {
	rec, reader := setupMetricsTest(t)
	ctx := context.Background()

	rec.RecordGeneration(ctx, "quiz", "valid", 1)
	rec.RecordGeneration(ctx, "quiz", "degraded", 3)
	rec.RecordSourceFailure(ctx, "web")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "flowgraph.generation.outcomes")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "flowgraph.source.failures")))

	attempts := findMetric(rm, "flowgraph.generation.attempts")
	require.NotNil(t, attempts)
	hist, ok := attempts.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, int64(4), hist.DataPoints[0].Sum)
}

func TestNoopMetrics(t *testing.T) {
	var rec MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		rec.RecordNodeExecution(context.Background(), "n", time.Second, nil)
		rec.RecordGraphRun(context.Background(), "g", false, time.Second)
		rec.RecordGeneration(context.Background(), "s", "valid", 1)
		rec.RecordSourceFailure(context.Background(), "video")
	})
}
