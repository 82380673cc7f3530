package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTreesLive      = "intervalbench.trees.live"
	metricHeapBytes      = "intervalbench.heap.bytes"
	metricLoadDuration   = "intervalbench.load.duration.seconds"
	metricQueryBatch     = "intervalbench.query.batch.duration.seconds"
	metricQueriesTotal   = "intervalbench.queries.total"
	metricMismatchesTotal = "intervalbench.mismatches.total"

	attrAlgorithm = "algorithm"
	attrKind      = "kind"
)

// durationBucketBoundaries covers 100µs to 60s, from small query batches
// to loading millions of intervals.
var durationBucketBoundaries = []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// BenchMetrics holds the instruments recorded by the intervalbench commands.
// A nil *BenchMetrics records nothing.
type BenchMetrics struct {
	treesLive     metric.Int64UpDownCounter
	heapBytes     metric.Int64Gauge
	loadDuration  metric.Float64Histogram
	queryBatch    metric.Float64Histogram
	queriesTotal  metric.Int64Counter
	mismatchTotal metric.Int64Counter
}

// NewBenchMetrics creates the instruments from the given meter.
func NewBenchMetrics(mt metric.Meter) (*BenchMetrics, error) {
	treesLive, err := mt.Int64UpDownCounter(metricTreesLive,
		metric.WithDescription("Number of trees currently held in memory"),
		metric.WithUnit("{tree}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreesLive, err)
	}

	heapBytes, err := mt.Int64Gauge(metricHeapBytes,
		metric.WithDescription("Live heap after the last garbage collection"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHeapBytes, err)
	}

	loadDuration, err := mt.Float64Histogram(metricLoadDuration,
		metric.WithDescription("Time to add and build one tree"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLoadDuration, err)
	}

	queryBatch, err := mt.Float64Histogram(metricQueryBatch,
		metric.WithDescription("Time to run one batch of queries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricQueryBatch, err)
	}

	queriesTotal, err := mt.Int64Counter(metricQueriesTotal,
		metric.WithDescription("Total number of benchmark queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricQueriesTotal, err)
	}

	mismatchTotal, err := mt.Int64Counter(metricMismatchesTotal,
		metric.WithDescription("Total number of results differing from the reference"),
		metric.WithUnit("{mismatch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMismatchesTotal, err)
	}

	return &BenchMetrics{
		treesLive:     treesLive,
		heapBytes:     heapBytes,
		loadDuration:  loadDuration,
		queryBatch:    queryBatch,
		queriesTotal:  queriesTotal,
		mismatchTotal: mismatchTotal,
	}, nil
}

// RecordTree records a tree that was loaded and built, and the heap size after it.
func (bm *BenchMetrics) RecordTree(ctx context.Context, algorithm string, load time.Duration, heapBytes uint64) {
	if bm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrAlgorithm, algorithm))

	bm.treesLive.Add(ctx, 1, attrs)
	bm.loadDuration.Record(ctx, load.Seconds(), attrs)
	bm.heapBytes.Record(ctx, int64(min(heapBytes, uint64(1<<63-1))), attrs) //nolint:gosec // clamped above.
}

// ReleaseTrees records that n trees were dropped.
func (bm *BenchMetrics) ReleaseTrees(ctx context.Context, algorithm string, n int) {
	if bm == nil {
		return
	}

	bm.treesLive.Add(ctx, -int64(n), metric.WithAttributes(attribute.String(attrAlgorithm, algorithm)))
}

// RecordQueries records a batch of n queries of one kind.
func (bm *BenchMetrics) RecordQueries(ctx context.Context, algorithm, kind string, n int, elapsed time.Duration) {
	if bm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrAlgorithm, algorithm),
		attribute.String(attrKind, kind),
	)

	bm.queriesTotal.Add(ctx, int64(n), attrs)
	bm.queryBatch.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordMismatches records results that differed from the reference.
func (bm *BenchMetrics) RecordMismatches(ctx context.Context, algorithm string, n int) {
	if bm == nil || n == 0 {
		return
	}

	bm.mismatchTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrAlgorithm, algorithm)))
}
