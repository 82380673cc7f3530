package interval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"
)

// Visitor walks the intervals overlapping an inclusive window.
type Visitor[K cmp.Ordered, V any] interface {
	// Visit calls fn for every interval overlapping [low, high] until fn returns false.
	Visit(low, high K, fn func(Interval[K, V]) bool) error
}

// Querier answers point and window queries.
type Querier[K cmp.Ordered, V any] interface {
	Query(target K) ([]V, error)
	QueryRange(low, high K) ([]V, error)
	QueryExclusive(low, high K) ([]V, error)
}

// Mutator changes the stored intervals.
type Mutator[K cmp.Ordered, V any] interface {
	Add(from, to K, value V) error
	Remove(values ...V)
	RemoveFunc(pred func(V) bool) int
	Clear()
}

// Iterable exposes the stored intervals in insertion-buffer order.
type Iterable[K cmp.Ordered, V any] interface {
	Count() int
	Values() iter.Seq[V]
	All() iter.Seq[Interval[K, V]]
}

// Index is the capability set shared by every tree regardless of algorithm.
type Index[K cmp.Ordered, V any] interface {
	Visitor[K, V]
	Querier[K, V]
	Mutator[K, V]
	Iterable[K, V]
}

var _ Index[int, string] = (*Tree[int, string])(nil)

// engine is a build algorithm. build may reorder items in place and keeps
// a reference to them for visit.
type engine[K cmp.Ordered, V any] interface {
	build(items []Interval[K, V]) (buildInfo, error)
	visit(b bounds[K], fn func(*Interval[K, V]) bool)
	// collect appends the value of every match to dst.
	collect(b bounds[K], dst []V) []V
}

// ErrExcessiveRecursion is returned when a build exceeds the maximum
// depth. It usually means the tree was mutated during a build.
var ErrExcessiveRecursion = errors.New("excessive recursion during build")

// maxBuildDepth bounds build recursion. A balanced build over any
// addressable slice stays far below it.
const maxBuildDepth = 100

func newDepthError(algo Algorithm, depth int) error {
	return fmt.Errorf("%w: %s build reached depth %d (limit %d)", ErrExcessiveRecursion, algo, depth, maxBuildDepth)
}

// buildInfo describes the last successful build.
type buildInfo struct {
	height int
	nodes  int
}

// Tree is a lazily built interval index. See the package documentation for
// the concurrency contract.
type Tree[K cmp.Ordered, V any] struct {
	buf    buffer[K, V]
	engine engine[K, V]
	equal  func(a, b V) bool
	algo   Algorithm
	coord  coordinator
	logger *slog.Logger
	tel    *telemetry

	// Guarded by coord.mu.
	info buildInfo

	builds atomic.Int64
}

// Stats describes a tree and its last build.
type Stats struct {
	Algorithm Algorithm
	Count     int
	Built     bool
	Builds    int64
	Height    int // Depth of the deepest node after the last build.
	Nodes     int // Index nodes allocated by the last build.
}

// New creates an empty tree whose Remove compares values with ==.
func New[K cmp.Ordered, V comparable](opts ...Option) *Tree[K, V] {
	return NewFunc[K, V](func(a, b V) bool { return a == b }, opts...)
}

// NewFunc creates an empty tree whose Remove compares values with equal.
// It panics when equal is nil.
func NewFunc[K cmp.Ordered, V any](equal func(a, b V) bool, opts ...Option) *Tree[K, V] {
	if equal == nil {
		panic("interval: NewFunc requires an equality function")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tree[K, V]{
		buf:    newBuffer[K, V](o.capacity),
		equal:  equal,
		algo:   o.algorithm,
		logger: o.logger,
	}

	switch o.algorithm {
	case Centered:
		t.engine = &centered[K, V]{}
	case Linear:
		t.engine = &linear[K, V]{}
	default:
		t.algo = Augmented
		t.engine = &augmented[K, V]{}
	}

	tel, err := newTelemetry(o.tracer, o.meter, t.algo)
	if err != nil {
		t.logger.Warn("interval telemetry disabled", "error", err)

		tel = noopTelemetry(t.algo)
	}

	t.tel = tel

	return t
}

// Algorithm returns the build algorithm of the tree.
func (t *Tree[K, V]) Algorithm() Algorithm {
	return t.algo
}

// Add stores [from, to] with value. It fails with ErrInvalidRange when
// from > to and leaves the tree unchanged.
func (t *Tree[K, V]) Add(from, to K, value V) error {
	iv, err := NewInterval(from, to, value)
	if err != nil {
		return err
	}

	t.buf.add(iv)
	t.coord.invalidate()

	return nil
}

// Remove deletes every interval whose value equals one of values. A removal
// that matches nothing keeps the current build; query results are the same
// either way.
func (t *Tree[K, V]) Remove(values ...V) {
	if len(values) == 0 {
		return
	}

	t.RemoveFunc(func(v V) bool {
		for _, target := range values {
			if t.equal(v, target) {
				return true
			}
		}

		return false
	})
}

// RemoveFunc deletes every interval whose value satisfies pred and returns
// how many were removed. Like Remove, it marks the tree for rebuild only
// when something was removed.
func (t *Tree[K, V]) RemoveFunc(pred func(V) bool) int {
	removed := t.buf.removeFunc(pred)
	if removed > 0 {
		t.coord.invalidate()
	}

	return removed
}

// Clear removes all intervals. The allocated capacity is kept.
func (t *Tree[K, V]) Clear() {
	t.buf.reset()
	t.coord.invalidate()
}

// Count returns the number of stored intervals.
func (t *Tree[K, V]) Count() int {
	return t.buf.count()
}

// Values yields the value of every stored interval in storage order.
func (t *Tree[K, V]) Values() iter.Seq[V] {
	return t.buf.values()
}

// All yields every stored interval in storage order.
func (t *Tree[K, V]) All() iter.Seq[Interval[K, V]] {
	return t.buf.all()
}

// Build indexes the stored intervals if they changed since the last build.
// Queries call it implicitly.
func (t *Tree[K, V]) Build(ctx context.Context) error {
	return t.coord.ensure(func() error {
		return t.rebuild(ctx)
	})
}

func (t *Tree[K, V]) rebuild(ctx context.Context) error {
	count := t.buf.count()
	start := time.Now()

	ctx, span := t.tel.startBuild(ctx, count)
	info, err := t.engine.build(t.buf.items)
	elapsed := time.Since(start)

	t.tel.endBuild(ctx, span, info, elapsed, err)

	if err != nil {
		t.logger.ErrorContext(ctx, "interval tree build failed",
			"algorithm", t.algo.String(), "count", count, "error", err)

		return fmt.Errorf("build %s tree: %w", t.algo, err)
	}

	t.info = info
	t.builds.Add(1)

	t.logger.DebugContext(ctx, "interval tree built",
		"algorithm", t.algo.String(),
		"count", count,
		"height", info.height,
		"nodes", info.nodes,
		"duration", elapsed,
	)

	return nil
}

// Query returns the values of every interval containing target.
// The result is nil when nothing matches.
func (t *Tree[K, V]) Query(target K) ([]V, error) {
	if isNaN(target) {
		return nil, newRangeError(target, target, "NaN bound")
	}

	return t.collect(kindPoint, pointBounds(target))
}

// QueryRange returns the values of every interval overlapping [low, high],
// limits included. It fails with ErrInvalidRange when high < low.
func (t *Tree[K, V]) QueryRange(low, high K) ([]V, error) {
	if err := checkRange(low, high); err != nil {
		return nil, err
	}

	return t.collect(kindRange, bounds[K]{low: low, high: high})
}

// QueryExclusive returns the values of every interval overlapping the open
// range (low, high). Intervals that only touch a limit are excluded, so a
// zero-width range matches nothing.
func (t *Tree[K, V]) QueryExclusive(low, high K) ([]V, error) {
	if err := checkRange(low, high); err != nil {
		return nil, err
	}

	return t.collect(kindExclusive, bounds[K]{low: low, high: high, open: true})
}

// Visit calls fn for every interval overlapping [low, high] until fn
// returns false.
func (t *Tree[K, V]) Visit(low, high K, fn func(Interval[K, V]) bool) error {
	if err := checkRange(low, high); err != nil {
		return err
	}

	if err := t.Build(context.Background()); err != nil {
		return err
	}

	t.engine.visit(bounds[K]{low: low, high: high}, func(iv *Interval[K, V]) bool {
		return fn(*iv)
	})

	return nil
}

// collect runs a query. A built tree answers an empty query without
// allocating.
func (t *Tree[K, V]) collect(kind queryKind, b bounds[K]) ([]V, error) {
	ctx := context.Background()

	if !t.coord.built() {
		err := t.Build(ctx)
		if err != nil {
			return nil, err
		}
	}

	var result []V

	if !b.empty() {
		result = t.engine.collect(b, nil)
	}

	t.tel.recordQuery(ctx, kind, len(result))

	return result, nil
}

// Stats returns a snapshot of the tree. It waits for a running build.
func (t *Tree[K, V]) Stats() Stats {
	t.coord.mu.Lock()
	info := t.info
	t.coord.mu.Unlock()

	return Stats{
		Algorithm: t.algo,
		Count:     t.buf.count(),
		Built:     t.coord.built(),
		Builds:    t.builds.Load(),
		Height:    info.height,
		Nodes:     info.nodes,
	}
}
