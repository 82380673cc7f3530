// Package interval provides lazily built, array-packed interval trees for
// point and range overlap queries over large static-ish interval sets.
//
// A [Tree] buffers Add and Remove calls and builds its index on the first
// query after a mutation. Three build algorithms share one public contract:
//
//   - [Augmented] sorts the intervals and treats the array as an implicit
//     binary tree whose nodes carry the maximum end of their subtree.
//     Each interval is stored once.
//   - [Centered] partitions the intervals around center keys and keeps two
//     sorted views per node. It uses more memory and answers queries faster.
//   - [Linear] scans every interval. It is the reference used to cross-check
//     the other two.
//
// Once built, a tree may be queried from any number of goroutines. Mutations
// must be serialized by the caller and must not overlap with queries.
package interval

import (
	"cmp"
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a range has high < low or a NaN bound.
var ErrInvalidRange = errors.New("invalid interval range")

// Interval is a closed range [From, To] carrying a Value.
type Interval[K cmp.Ordered, V any] struct {
	From  K
	To    K
	Value V
}

// NewInterval returns the interval [from, to] or ErrInvalidRange when from > to.
func NewInterval[K cmp.Ordered, V any](from, to K, value V) (Interval[K, V], error) {
	if err := checkRange(from, to); err != nil {
		return Interval[K, V]{}, err
	}

	return Interval[K, V]{From: from, To: to, Value: value}, nil
}

// Compare orders intervals by From, then by To.
func (iv Interval[K, V]) Compare(other Interval[K, V]) int {
	if c := cmp.Compare(iv.From, other.From); c != 0 {
		return c
	}

	return cmp.Compare(iv.To, other.To)
}

// Contains reports whether key lies within [From, To].
func (iv Interval[K, V]) Contains(key K) bool {
	return iv.From <= key && key <= iv.To
}

// Overlaps reports whether [From, To] shares at least one key with [low, high].
func (iv Interval[K, V]) Overlaps(low, high K) bool {
	return iv.From <= high && iv.To >= low
}

func compareIntervals[K cmp.Ordered, V any](a, b Interval[K, V]) int {
	return a.Compare(b)
}

// isNaN reports whether k is a floating-point NaN. It is always false for
// integer and string keys.
func isNaN[K cmp.Ordered](k K) bool {
	return k != k //nolint:gocritic // self-comparison detects NaN.
}

func checkRange[K cmp.Ordered](low, high K) error {
	if isNaN(low) || isNaN(high) {
		return newRangeError(low, high, "NaN bound")
	}

	if high < low {
		return newRangeError(low, high, "high is smaller than low")
	}

	return nil
}

func newRangeError[K any](low, high K, reason string) error {
	return fmt.Errorf("%w: [%v, %v]: %s", ErrInvalidRange, low, high, reason)
}
