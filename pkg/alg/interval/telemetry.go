package interval

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"

	metricBuildsTotal   = "interval.builds.total"
	metricBuildDuration = "interval.build.duration.seconds"
	metricQueriesTotal  = "interval.queries.total"
	metricQueryResults  = "interval.query.results"

	spanBuild = "interval.build"

	attrAlgorithm = "algorithm"
	attrKind      = "kind"
	attrCount     = "interval.count"
	attrHeight    = "interval.height"
	attrNodes     = "interval.nodes"

)

// queryKind labels the query instruments.
type queryKind int

const (
	kindPoint queryKind = iota
	kindRange
	kindExclusive
	queryKinds
)

func (k queryKind) String() string {
	switch k {
	case kindPoint:
		return "point"
	case kindRange:
		return "range"
	default:
		return "exclusive"
	}
}

// queryAttrs are the measurement options of one query kind, built once so
// recording a query does not allocate.
type queryAttrs struct {
	add    []metric.AddOption
	record []metric.RecordOption
}

// buildBucketBoundaries covers 10µs to 10s builds.
var buildBucketBoundaries = []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// resultBucketBoundaries covers result set sizes from empty to 100k.
var resultBucketBoundaries = []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000, 100000}

// telemetry holds the tracer and instruments of one tree.
type telemetry struct {
	tracer        trace.Tracer
	buildsTotal   metric.Int64Counter
	buildDuration metric.Float64Histogram
	queriesTotal  metric.Int64Counter
	queryResults  metric.Int64Histogram
	algoAttr      attribute.KeyValue
	queryAttrs    [queryKinds]queryAttrs
}

// newTelemetry creates the instruments of a tree. A nil tracer or meter
// falls back to the no-op implementation.
func newTelemetry(tracer trace.Tracer, mt metric.Meter, algo Algorithm) (*telemetry, error) {
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(instrumentationName)
	}

	if mt == nil {
		mt = noopmetric.NewMeterProvider().Meter(instrumentationName)
	}

	buildsTotal, err := mt.Int64Counter(metricBuildsTotal,
		metric.WithDescription("Total number of tree builds"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBuildsTotal, err)
	}

	buildDuration, err := mt.Float64Histogram(metricBuildDuration,
		metric.WithDescription("Tree build duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buildBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBuildDuration, err)
	}

	queriesTotal, err := mt.Int64Counter(metricQueriesTotal,
		metric.WithDescription("Total number of tree queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricQueriesTotal, err)
	}

	queryResults, err := mt.Int64Histogram(metricQueryResults,
		metric.WithDescription("Number of values returned per query"),
		metric.WithUnit("{value}"),
		metric.WithExplicitBucketBoundaries(resultBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricQueryResults, err)
	}

	tel := &telemetry{
		tracer:        tracer,
		buildsTotal:   buildsTotal,
		buildDuration: buildDuration,
		queriesTotal:  queriesTotal,
		queryResults:  queryResults,
		algoAttr:      attribute.String(attrAlgorithm, algo.String()),
	}

	for kind := range queryKinds {
		opt := metric.WithAttributeSet(attribute.NewSet(tel.algoAttr, attribute.String(attrKind, kind.String())))
		tel.queryAttrs[kind] = queryAttrs{
			add:    []metric.AddOption{opt},
			record: []metric.RecordOption{opt},
		}
	}

	return tel, nil
}

// noopTelemetry is used when instrument creation fails.
func noopTelemetry(algo Algorithm) *telemetry {
	tel, _ := newTelemetry(nil, nil, algo) //nolint:errcheck // no-op instruments never fail.

	return tel
}

func (tel *telemetry) startBuild(ctx context.Context, count int) (context.Context, trace.Span) {
	return tel.tracer.Start(ctx, spanBuild, trace.WithAttributes(
		tel.algoAttr,
		attribute.Int(attrCount, count),
	))
}

func (tel *telemetry) endBuild(ctx context.Context, span trace.Span, info buildInfo, elapsed time.Duration, err error) {
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return
	}

	span.SetAttributes(
		attribute.Int(attrHeight, info.height),
		attribute.Int(attrNodes, info.nodes),
	)

	attrs := metric.WithAttributes(tel.algoAttr)
	tel.buildsTotal.Add(ctx, 1, attrs)
	tel.buildDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (tel *telemetry) recordQuery(ctx context.Context, kind queryKind, results int) {
	attrs := &tel.queryAttrs[kind]
	tel.queriesTotal.Add(ctx, 1, attrs.add...)
	tel.queryResults.Record(ctx, int64(results), attrs.record...)
}
