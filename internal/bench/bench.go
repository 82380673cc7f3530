// Package bench measures load and query throughput of the interval index
// algorithms over generated workloads.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/intervaltree/internal/workload"
	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/stats"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
)

// Scenario names one measured workload step.
type Scenario string

// Measured scenarios, in run order.
const (
	ScenarioLoad       Scenario = "load"
	ScenarioPoint      Scenario = "point"
	ScenarioRange      Scenario = "range"
	ScenarioChurn      Scenario = "churn"
	ScenarioConcurrent Scenario = "concurrent"
)

// maxChurnRounds caps churn rounds; each round forces a full rebuild.
const maxChurnRounds = 100

// ErrNoAlgorithms is returned when Options lists no algorithm.
var ErrNoAlgorithms = errors.New("no algorithms selected")

// Scenarios lists every scenario in run order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioLoad, ScenarioPoint, ScenarioRange, ScenarioChurn, ScenarioConcurrent}
}

// Options configures a benchmark run.
type Options struct {
	Algorithms []interval.Algorithm
	Workload   workload.Params
	Queries    int
	RangeWidth int64
	Workers    int

	Logger  *slog.Logger
	Metrics *observability.BenchMetrics

	// TreeOptions are appended to every tree constructed by the run.
	TreeOptions []interval.Option
}

// Result is the measurement of one scenario for one algorithm.
type Result struct {
	Algorithm interval.Algorithm
	Scenario  Scenario
	Ops       int
	Hits      int
	Elapsed   time.Duration

	// Latency is set for scenarios timed per query.
	Latency stats.Summary
}

// NsPerOp returns the mean latency per operation.
func (r Result) NsPerOp() float64 {
	if r.Ops == 0 {
		return 0
	}

	return float64(r.Elapsed.Nanoseconds()) / float64(r.Ops)
}

// OpsPerSec returns the throughput.
func (r Result) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.Ops) / r.Elapsed.Seconds()
}

// Report collects every result of a run.
type Report struct {
	Workload  workload.Kind
	Intervals int
	Queries   int
	Results   []Result
}

// Lookup returns the result for an algorithm and scenario.
func (r *Report) Lookup(algo interval.Algorithm, scenario Scenario) (Result, bool) {
	for _, res := range r.Results {
		if res.Algorithm == algo && res.Scenario == scenario {
			return res, true
		}
	}

	return Result{}, false
}

// Run executes every scenario for every algorithm on one generated workload.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if len(opts.Algorithms) == 0 {
		return nil, ErrNoAlgorithms
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts.Workers = max(opts.Workers, 1)

	items, err := workload.Generate(opts.Workload)
	if err != nil {
		return nil, fmt.Errorf("generate workload: %w", err)
	}

	lowest, highest := workload.Bounds(items)
	targets := queryTargets(opts.Workload.Seed, opts.Queries, lowest, highest)

	report := &Report{
		Workload:  opts.Workload.Kind,
		Intervals: len(items),
		Queries:   len(targets),
	}

	for _, algo := range opts.Algorithms {
		r := runner{opts: opts, algo: algo, items: items, targets: targets}

		results, runErr := r.run(ctx)
		if runErr != nil {
			return nil, fmt.Errorf("%s: %w", algo, runErr)
		}

		report.Results = append(report.Results, results...)

		opts.Logger.Info("benchmark finished", "algorithm", algo.String(), "intervals", len(items))
	}

	return report, nil
}

func queryTargets(seed uint64, n int, lowest, highest int64) []int64 {
	rng := rand.New(rand.NewPCG(^seed, seed))
	targets := make([]int64, max(n, 0))

	for i := range targets {
		targets[i] = lowest + rng.Int64N(highest-lowest+1)
	}

	return targets
}

type runner struct {
	opts    Options
	algo    interval.Algorithm
	items   []interval.Interval[int64, int]
	targets []int64
}

func (r *runner) newTree() *interval.Tree[int64, int] {
	treeOpts := append([]interval.Option{
		interval.WithAlgorithm(r.algo),
		interval.WithCapacity(len(r.items)),
	}, r.opts.TreeOptions...)

	return interval.New[int64, int](treeOpts...)
}

func (r *runner) fill(tree *interval.Tree[int64, int]) error {
	for _, iv := range r.items {
		err := tree.Add(iv.From, iv.To, iv.Value)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *runner) run(ctx context.Context) ([]Result, error) {
	tree, load, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	results := []Result{load}

	steps := []func(context.Context, *interval.Tree[int64, int]) (Result, error){
		r.point, r.rangeQueries, r.churn, r.concurrent,
	}

	for _, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		res, stepErr := step(ctx, tree)
		if stepErr != nil {
			return nil, stepErr
		}

		results = append(results, res)
	}

	return results, nil
}

func (r *runner) load(ctx context.Context) (*interval.Tree[int64, int], Result, error) {
	start := time.Now()
	tree := r.newTree()

	err := r.fill(tree)
	if err != nil {
		return nil, Result{}, err
	}

	err = tree.Build(ctx)
	if err != nil {
		return nil, Result{}, err
	}

	elapsed := time.Since(start)

	var ms runtime.MemStats

	runtime.ReadMemStats(&ms)
	r.opts.Metrics.RecordTree(ctx, r.algo.String(), elapsed, ms.HeapAlloc)

	return tree, Result{Algorithm: r.algo, Scenario: ScenarioLoad, Ops: len(r.items), Elapsed: elapsed}, nil
}

func (r *runner) point(ctx context.Context, tree *interval.Tree[int64, int]) (Result, error) {
	return r.timed(ctx, ScenarioPoint, func(target int64) ([]int, error) {
		return tree.Query(target)
	})
}

func (r *runner) rangeQueries(ctx context.Context, tree *interval.Tree[int64, int]) (Result, error) {
	return r.timed(ctx, ScenarioRange, func(target int64) ([]int, error) {
		return tree.QueryRange(target, target+r.opts.RangeWidth)
	})
}

// timed runs query once per target and records each call's latency.
func (r *runner) timed(ctx context.Context, scenario Scenario, query func(int64) ([]int, error)) (Result, error) {
	res := Result{Algorithm: r.algo, Scenario: scenario, Ops: len(r.targets)}
	samples := make([]time.Duration, len(r.targets))
	start := time.Now()

	for i, target := range r.targets {
		begin := time.Now()

		got, err := query(target)
		if err != nil {
			return Result{}, err
		}

		samples[i] = time.Since(begin)
		res.Hits += len(got)
	}

	res.Elapsed = time.Since(start)
	res.Latency = stats.Summarize(samples)
	r.opts.Metrics.RecordQueries(ctx, r.algo.String(), string(scenario), res.Ops, res.Elapsed)

	return res, nil
}

// churn replaces one interval and queries once per round, so every round
// pays a rebuild. The tree size stays constant even when values repeat.
func (r *runner) churn(ctx context.Context, tree *interval.Tree[int64, int]) (Result, error) {
	rounds := min(len(r.targets), len(r.items), maxChurnRounds)
	res := Result{Algorithm: r.algo, Scenario: ScenarioChurn, Ops: rounds}
	start := time.Now()

	for i := range rounds {
		victim := r.items[i]
		removeOne(tree, victim.Value)

		err := tree.Add(victim.From, victim.To, victim.Value)
		if err != nil {
			return Result{}, err
		}

		got, err := tree.Query(r.targets[i])
		if err != nil {
			return Result{}, err
		}

		res.Hits += len(got)
	}

	res.Elapsed = time.Since(start)
	r.opts.Metrics.RecordQueries(ctx, r.algo.String(), string(ScenarioChurn), res.Ops, res.Elapsed)

	return res, nil
}

// concurrent races the workers on the first build of a fresh tree and then
// splits the point queries between them.
func (r *runner) concurrent(ctx context.Context, _ *interval.Tree[int64, int]) (Result, error) {
	tree := r.newTree()

	err := r.fill(tree)
	if err != nil {
		return Result{}, err
	}

	hits := make([]int, r.opts.Workers)
	group, groupCtx := errgroup.WithContext(ctx)
	start := time.Now()

	for worker := range r.opts.Workers {
		group.Go(func() error {
			for i := worker; i < len(r.targets); i += r.opts.Workers {
				if i%1024 == 0 && groupCtx.Err() != nil {
					return groupCtx.Err()
				}

				got, queryErr := tree.Query(r.targets[i])
				if queryErr != nil {
					return queryErr
				}

				hits[worker] += len(got)
			}

			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return Result{}, err
	}

	res := Result{Algorithm: r.algo, Scenario: ScenarioConcurrent, Ops: len(r.targets), Elapsed: time.Since(start)}
	for _, h := range hits {
		res.Hits += h
	}

	r.opts.Metrics.RecordQueries(ctx, r.algo.String(), string(ScenarioConcurrent), res.Ops, res.Elapsed)

	return res, nil
}

func reportAlgorithms(report *Report) []interval.Algorithm {
	var algos []interval.Algorithm

	for _, res := range report.Results {
		if len(algos) == 0 || algos[len(algos)-1] != res.Algorithm {
			algos = append(algos, res.Algorithm)
		}
	}

	return algos
}

func removeOne(tree *interval.Tree[int64, int], value int) {
	done := false

	tree.RemoveFunc(func(v int) bool {
		if done || v != value {
			return false
		}

		done = true

		return true
	})
}
