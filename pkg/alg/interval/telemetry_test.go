package interval_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

// TestTelemetry_BuildAndQueryMetrics verifies build and query instruments.
func TestTelemetry_BuildAndQueryMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tree := interval.New[int, int](
		interval.WithAlgorithm(interval.Centered),
		interval.WithMeter(mp.Meter("test")),
	)

	for i := range 10 {
		require.NoError(t, tree.Add(i, i+2, i))
	}

	_, err := tree.Query(3)
	require.NoError(t, err)

	_, err = tree.QueryRange(0, 5)
	require.NoError(t, err)

	rm := collectMetrics(t, reader)

	builds := findMetric(rm, "interval.builds.total")
	require.NotNil(t, builds, "interval.builds.total metric not found")

	sum, ok := builds.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	algo, found := sum.DataPoints[0].Attributes.Value(attribute.Key("algorithm"))
	require.True(t, found)
	assert.Equal(t, "centered", algo.AsString())

	require.NotNil(t, findMetric(rm, "interval.build.duration.seconds"))

	queries := findMetric(rm, "interval.queries.total")
	require.NotNil(t, queries)

	qsum, ok := queries.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, qsum.DataPoints, 2)

	require.NotNil(t, findMetric(rm, "interval.query.results"))
}

// TestTelemetry_BuildSpan verifies each build records a span with its shape.
func TestTelemetry_BuildSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tree := interval.New[int, int](interval.WithTracer(tp.Tracer("test")))
	for i := range 100 {
		require.NoError(t, tree.Add(i, i+1, i))
	}

	require.NoError(t, tree.Build(context.Background()))
	require.NoError(t, tree.Build(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "interval.build", spans[0].Name)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}

	assert.Equal(t, "augmented", attrs["algorithm"].AsString())
	assert.Equal(t, int64(100), attrs["interval.count"].AsInt64())
	assert.Equal(t, int64(7), attrs["interval.height"].AsInt64())
}

// TestTelemetry_BuildLog verifies builds are logged at debug level.
func TestTelemetry_BuildLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tree := interval.New[int, string](interval.WithLogger(logger), interval.WithAlgorithm(interval.Linear))
	require.NoError(t, tree.Add(1, 2, "a"))

	_, err := tree.Query(1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "interval tree built")
	assert.Contains(t, out, "algorithm=linear")
	assert.Contains(t, out, "count=1")
}

// TestStats verifies the snapshot reflects the last build.
func TestStats(t *testing.T) {
	t.Parallel()

	tree := interval.New[int, int](interval.WithAlgorithm(interval.Centered), interval.WithCapacity(1))

	stats := tree.Stats()
	assert.Equal(t, interval.Centered, stats.Algorithm)
	assert.False(t, stats.Built)
	assert.Zero(t, stats.Builds)

	for i := range 64 {
		require.NoError(t, tree.Add(i, i, i))
	}

	require.NoError(t, tree.Build(context.Background()))

	stats = tree.Stats()
	assert.True(t, stats.Built)
	assert.Equal(t, 64, stats.Count)
	assert.Equal(t, int64(1), stats.Builds)
	assert.Positive(t, stats.Height)
	assert.Greater(t, stats.Nodes, 1)
}
