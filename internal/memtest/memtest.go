// Package memtest builds interval trees until a heap budget is reached and
// reports the memory each tree costs.
package memtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/intervaltree/internal/workload"
	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
)

// StopReason says why a run stopped adding trees.
type StopReason string

// Stop reasons.
const (
	StopBudget   StopReason = "memory budget reached"
	StopTreesMax StopReason = "tree limit reached"
)

// Sentinel errors.
var (
	ErrInvalidBudget   = errors.New("memory budget must be positive")
	ErrInvalidTreesMax = errors.New("tree limit must be positive")
)

// Options configures a memory test.
type Options struct {
	Algorithm interval.Algorithm
	Budget    uint64
	TreesMax  int
	Capacity  int
	Workload  workload.Params

	// Hang keeps the trees alive after the report until ctx is done.
	Hang bool

	Logger  *slog.Logger
	Metrics *observability.BenchMetrics

	// TreeOptions are appended to every tree constructed by the run.
	TreeOptions []interval.Option

	// ReadHeap returns live heap bytes. Defaults to a GC followed by
	// runtime.ReadMemStats.
	ReadHeap func() uint64

	// OnReport is called with the final report before hanging.
	OnReport func(*Report)
}

// Sample is the state after one tree was added.
type Sample struct {
	Tree      int
	Load      time.Duration
	HeapBytes uint64
}

// Report summarizes a memory test.
type Report struct {
	Algorithm interval.Algorithm
	Intervals int
	Budget    uint64
	Baseline  uint64
	Reason    StopReason
	Samples   []Sample
}

// Trees returns how many trees were built.
func (r *Report) Trees() int {
	return len(r.Samples)
}

// Used returns heap bytes above the baseline after the last tree.
func (r *Report) Used() uint64 {
	if len(r.Samples) == 0 {
		return 0
	}

	last := r.Samples[len(r.Samples)-1].HeapBytes
	if last < r.Baseline {
		return 0
	}

	return last - r.Baseline
}

// PerTree returns the mean heap cost of one tree.
func (r *Report) PerTree() uint64 {
	if len(r.Samples) == 0 {
		return 0
	}

	return r.Used() / uint64(len(r.Samples))
}

// PerInterval returns the mean heap cost of one stored interval.
func (r *Report) PerInterval() float64 {
	total := r.Intervals * len(r.Samples)
	if total == 0 {
		return 0
	}

	return float64(r.Used()) / float64(total)
}

// Run adds built trees until the heap grows by Budget or TreesMax trees exist.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Budget == 0 {
		return nil, ErrInvalidBudget
	}

	if opts.TreesMax <= 0 {
		return nil, ErrInvalidTreesMax
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.ReadHeap == nil {
		opts.ReadHeap = readHeap
	}

	report := &Report{
		Algorithm: opts.Algorithm,
		Intervals: opts.Workload.Count,
		Budget:    opts.Budget,
		Reason:    StopTreesMax,
		Baseline:  opts.ReadHeap(),
	}

	trees := make([]*interval.Tree[int64, int], 0, opts.TreesMax)

	for idx := range opts.TreesMax {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		tree, load, err := buildTree(ctx, opts, idx)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", idx, err)
		}

		trees = append(trees, tree)

		heap := opts.ReadHeap()
		report.Samples = append(report.Samples, Sample{Tree: idx, Load: load, HeapBytes: heap})
		opts.Metrics.RecordTree(ctx, opts.Algorithm.String(), load, heap)

		opts.Logger.Debug("tree added",
			"tree", idx, "load", load, "heap", humanize.IBytes(heap))

		if report.Used() >= opts.Budget {
			report.Reason = StopBudget

			break
		}
	}

	opts.Logger.Info("memory test finished",
		"algorithm", opts.Algorithm.String(),
		"trees", report.Trees(),
		"used", humanize.IBytes(report.Used()),
		"reason", string(report.Reason))

	if opts.OnReport != nil {
		opts.OnReport(report)
	}

	if opts.Hang {
		opts.Logger.Info("holding trees until interrupted", "trees", len(trees))
		<-ctx.Done()
	}

	opts.Metrics.ReleaseTrees(ctx, opts.Algorithm.String(), len(trees))
	runtime.KeepAlive(trees)

	return report, nil
}

func buildTree(ctx context.Context, opts Options, idx int) (*interval.Tree[int64, int], time.Duration, error) {
	params := opts.Workload
	params.Seed += uint64(idx)

	items, err := workload.Generate(params)
	if err != nil {
		return nil, 0, err
	}

	treeOpts := append([]interval.Option{
		interval.WithAlgorithm(opts.Algorithm),
		interval.WithCapacity(opts.Capacity),
	}, opts.TreeOptions...)

	start := time.Now()
	tree := interval.New[int64, int](treeOpts...)

	for _, iv := range items {
		err = tree.Add(iv.From, iv.To, iv.Value)
		if err != nil {
			return nil, 0, err
		}
	}

	err = tree.Build(ctx)
	if err != nil {
		return nil, 0, err
	}

	return tree, time.Since(start), nil
}

func readHeap() uint64 {
	var ms runtime.MemStats

	runtime.GC()
	runtime.ReadMemStats(&ms)

	return ms.HeapAlloc
}
