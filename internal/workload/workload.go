// Package workload generates reproducible interval sets for benchmarks,
// memory tests and cross-checks.
package workload

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
)

// Kind names a workload shape.
type Kind string

// Supported workload kinds.
const (
	// KindSparse is a shuffled chain of short intervals with small gaps.
	KindSparse Kind = "sparse"
	// KindUniform draws starts uniformly from [0, KeyMax) snapped to Step.
	KindUniform Kind = "uniform"
	// KindWide spreads intervals of one to two thousand keys over a huge key space.
	KindWide Kind = "wide"
	// KindSkewed inserts groups of identical intervals with halving sizes.
	KindSkewed Kind = "skewed"
)

// Wide key space bounds.
const (
	wideKeyMin  = 300_000_000_000
	wideKeyMax  = 700_000_000_000
	wideKeyStep = 1000
	wideValues  = 10_000
)

// Sentinel errors.
var (
	ErrUnknownKind   = errors.New("unknown workload kind")
	ErrInvalidParams = errors.New("invalid workload parameters")
)

// Params configures a generator.
type Params struct {
	Kind    Kind
	Count   int
	Seed    uint64
	KeyMax  int64 // Exclusive upper bound of uniform starts.
	Step    int64 // Uniform starts are multiples of Step.
	MaxSize int64 // Largest uniform interval length.
}

// Kinds lists every workload kind.
func Kinds() []Kind {
	return []Kind{KindSparse, KindUniform, KindWide, KindSkewed}
}

// ParseKind maps a name to a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Generate produces the intervals described by p. Values are the
// generation index unless the kind defines otherwise.
func Generate(p Params) ([]interval.Interval[int64, int], error) {
	if p.Count < 0 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidParams, p.Count)
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))

	switch p.Kind {
	case KindSparse:
		return Sparse(rng, p.Count), nil
	case KindUniform:
		if p.KeyMax <= 0 || p.Step <= 0 || p.MaxSize <= 0 {
			return nil, fmt.Errorf("%w: key max %d, step %d, max size %d", ErrInvalidParams, p.KeyMax, p.Step, p.MaxSize)
		}

		return Uniform(rng, p.Count, p.KeyMax, p.Step, p.MaxSize), nil
	case KindWide:
		return Wide(rng, p.Count), nil
	case KindSkewed:
		return Skewed(p.Count), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
}

// Sparse returns n shuffled intervals. Starts advance by the smaller of two
// draws in [0, 10) and lengths favor short intervals.
func Sparse(rng *rand.Rand, n int) []interval.Interval[int64, int] {
	out := make([]interval.Interval[int64, int], n)
	start := rng.Int64N(10)

	for i := range out {
		start += min(rng.Int64N(10), rng.Int64N(10))

		length := min(rng.Int64N(4)+1, rng.Int64N(4)+1)
		length = length*length + rng.Int64N(10)

		out[i] = interval.Interval[int64, int]{From: start, To: start + length, Value: i}
	}

	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}

// Uniform returns n intervals starting uniformly in [0, keyMax), snapped
// down to a multiple of step, with lengths in [1, maxSize] clipped to keyMax.
func Uniform(rng *rand.Rand, n int, keyMax, step, maxSize int64) []interval.Interval[int64, int] {
	out := make([]interval.Interval[int64, int], n)

	for i := range out {
		from := rng.Int64N(keyMax) / step * step
		to := from + rng.Int64N(min(maxSize, keyMax-from+1)) + 1

		out[i] = interval.Interval[int64, int]{From: from, To: to, Value: i}
	}

	return out
}

// Wide returns n intervals over a 400 billion key space. Values repeat.
func Wide(rng *rand.Rand, n int) []interval.Interval[int64, int] {
	out := make([]interval.Interval[int64, int], n)

	for i := range out {
		from := (wideKeyMin/wideKeyStep + rng.Int64N((wideKeyMax-wideKeyMin)/wideKeyStep)) * wideKeyStep
		to := from + (1+rng.Int64N(2))*wideKeyStep - 1

		out[i] = interval.Interval[int64, int]{From: from, To: to, Value: rng.IntN(wideValues)}
	}

	return out
}

// Skewed returns groups of identical [k, k+1] intervals two keys apart.
// Group sizes halve from the largest power of two that fits n, so the
// first keys are heavily duplicated. Any remainder goes to a last group.
func Skewed(n int) []interval.Interval[int64, int] {
	out := make([]interval.Interval[int64, int], 0, n)

	group := 1
	for group*2 <= (n+1)/2 {
		group *= 2
	}

	var from int64

	for len(out) < n {
		size := n - len(out)
		if group > 1 {
			size = min(group, size)
		}

		for range size {
			out = append(out, interval.Interval[int64, int]{From: from, To: from + 1, Value: len(out)})
		}

		group /= 2
		from += 2
	}

	return out
}

// Bounds returns the smallest From and the largest To of items.
func Bounds(items []interval.Interval[int64, int]) (lowest, highest int64) {
	if len(items) == 0 {
		return 0, 0
	}

	lowest, highest = items[0].From, items[0].To
	for _, iv := range items[1:] {
		lowest = min(lowest, iv.From)
		highest = max(highest, iv.To)
	}

	return lowest, highest
}
