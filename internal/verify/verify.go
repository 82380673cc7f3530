// Package verify cross-checks the interval index algorithms against the
// linear reference on randomized inputs.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
)

// Query kinds checked per seed.
const (
	KindPoint     = "point"
	KindRange     = "range"
	KindExclusive = "exclusive"
)

// rangeSlack extends random range bounds below zero and past the key space.
const rangeSlack = 50

// maxRecorded bounds how many mismatches are kept per algorithm.
const maxRecorded = 20

// Sentinel errors.
var (
	ErrNoAlgorithms  = errors.New("no algorithms to verify")
	ErrInvalidParams = errors.New("invalid verify parameters")
)

// Options configures a verification run.
type Options struct {
	Algorithms   []interval.Algorithm
	Seeds        int
	MaxIntervals int
	KeySpace     int
	QuerySpace   int

	Logger  *slog.Logger
	Metrics *observability.BenchMetrics
}

// Mismatch is one query whose result differs from the reference.
type Mismatch struct {
	Algorithm interval.Algorithm
	Seed      uint64
	Kind      string
	Low       int
	High      int
	Want      []int
	Got       []int
}

// Result summarizes the checks of one algorithm.
type Result struct {
	Algorithm  interval.Algorithm
	Checks     int
	Failures   int
	Mismatches []Mismatch
}

// Passed reports whether every check matched the reference.
func (r Result) Passed() bool {
	return r.Failures == 0
}

// Report collects the results of a run.
type Report struct {
	Seeds   int
	Results []Result
}

// Passed reports whether every algorithm passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}

	return true
}

// Run checks every algorithm against interval.Linear for each seed in
// [0, Seeds). Every point in [0, QuerySpace) is queried, plus QuerySpace
// random closed and open ranges.
func Run(ctx context.Context, opts Options) (*Report, error) {
	algos := slices.DeleteFunc(slices.Clone(opts.Algorithms), func(a interval.Algorithm) bool {
		return a == interval.Linear
	})
	if len(algos) == 0 {
		return nil, ErrNoAlgorithms
	}

	if opts.Seeds <= 0 || opts.MaxIntervals < 0 || opts.KeySpace <= 0 || opts.QuerySpace <= 0 {
		return nil, fmt.Errorf("%w: seeds %d, max intervals %d, key space %d, query space %d",
			ErrInvalidParams, opts.Seeds, opts.MaxIntervals, opts.KeySpace, opts.QuerySpace)
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	results := make([]Result, len(algos))
	for i, algo := range algos {
		results[i].Algorithm = algo
	}

	for seed := range uint64(opts.Seeds) {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		err = checkSeed(seed, opts, results)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", seed, err)
		}
	}

	for _, res := range results {
		opts.Metrics.RecordMismatches(ctx, res.Algorithm.String(), res.Failures)
		opts.Logger.Info("verification finished",
			"algorithm", res.Algorithm.String(), "checks", res.Checks, "failures", res.Failures)
	}

	return &Report{Seeds: opts.Seeds, Results: results}, nil
}

type query struct {
	kind      string
	low, high int
}

func seedQueries(rng *rand.Rand, opts Options) []query {
	queries := make([]query, 0, 3*opts.QuerySpace)

	for target := range opts.QuerySpace {
		queries = append(queries, query{kind: KindPoint, low: target, high: target})
	}

	for range opts.QuerySpace {
		a := rng.IntN(opts.QuerySpace+rangeSlack) - rangeSlack
		b := rng.IntN(opts.QuerySpace+rangeSlack) - rangeSlack
		low, high := min(a, b), max(a, b)

		queries = append(queries,
			query{kind: KindRange, low: low, high: high},
			query{kind: KindExclusive, low: low, high: high},
		)
	}

	return queries
}

func checkSeed(seed uint64, opts Options, results []Result) error {
	rng := rand.New(rand.NewPCG(seed, seed))

	n := rng.IntN(opts.MaxIntervals + 1)
	reference := interval.New[int, int](interval.WithAlgorithm(interval.Linear))
	trees := make([]*interval.Tree[int, int], len(results))

	for i := range trees {
		trees[i] = interval.New[int, int](interval.WithAlgorithm(results[i].Algorithm))
	}

	for value := range n {
		a, b := rng.IntN(opts.KeySpace), rng.IntN(opts.KeySpace)
		from, to := min(a, b), max(a, b)

		err := reference.Add(from, to, value)
		if err != nil {
			return err
		}

		for _, tree := range trees {
			err = tree.Add(from, to, value)
			if err != nil {
				return err
			}
		}
	}

	for _, q := range seedQueries(rng, opts) {
		want, err := run(reference, q)
		if err != nil {
			return err
		}

		for i, tree := range trees {
			got, queryErr := run(tree, q)
			if queryErr != nil {
				return queryErr
			}

			res := &results[i]
			res.Checks++

			if slices.Equal(want, got) {
				continue
			}

			res.Failures++

			if len(res.Mismatches) < maxRecorded {
				res.Mismatches = append(res.Mismatches, Mismatch{
					Algorithm: res.Algorithm,
					Seed:      seed,
					Kind:      q.kind,
					Low:       q.low,
					High:      q.high,
					Want:      want,
					Got:       got,
				})
			}
		}
	}

	return nil
}

// run executes q and returns the sorted values.
func run(tree *interval.Tree[int, int], q query) ([]int, error) {
	var (
		values []int
		err    error
	)

	switch q.kind {
	case KindPoint:
		values, err = tree.Query(q.low)
	case KindRange:
		values, err = tree.QueryRange(q.low, q.high)
	default:
		values, err = tree.QueryExclusive(q.low, q.high)
	}

	slices.Sort(values)

	return values, err
}
