package interval

import (
	"cmp"
	"iter"
)

// DefaultCapacity is the initial buffer capacity when WithCapacity is not given.
const DefaultCapacity = 32

// buffer is the mutable store behind a tree. Builds reorder its live
// extent in place; the logical contents never change during a build.
type buffer[K cmp.Ordered, V any] struct {
	items []Interval[K, V]
}

func newBuffer[K cmp.Ordered, V any](capacity int) buffer[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return buffer[K, V]{items: make([]Interval[K, V], 0, capacity)}
}

// add appends an interval, doubling the backing array when full.
func (b *buffer[K, V]) add(iv Interval[K, V]) {
	if len(b.items) == cap(b.items) {
		newCap := 2 * cap(b.items)
		if newCap == 0 {
			newCap = DefaultCapacity
		}

		grown := make([]Interval[K, V], len(b.items), newCap)
		copy(grown, b.items)
		b.items = grown
	}

	b.items = append(b.items, iv)
}

// removeFunc swap-removes every interval whose value matches pred and
// returns how many were removed.
func (b *buffer[K, V]) removeFunc(pred func(V) bool) int {
	removed := 0

	for i := 0; i < len(b.items); {
		if !pred(b.items[i].Value) {
			i++

			continue
		}

		last := len(b.items) - 1
		b.items[i] = b.items[last]
		b.items[last] = Interval[K, V]{}
		b.items = b.items[:last]
		removed++
	}

	return removed
}

// reset drops every interval and keeps the backing array.
func (b *buffer[K, V]) reset() {
	clear(b.items)
	b.items = b.items[:0]
}

func (b *buffer[K, V]) count() int {
	return len(b.items)
}

func (b *buffer[K, V]) all() iter.Seq[Interval[K, V]] {
	return func(yield func(Interval[K, V]) bool) {
		for i := 0; i < len(b.items); i++ {
			if !yield(b.items[i]) {
				return
			}
		}
	}
}

func (b *buffer[K, V]) values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for i := 0; i < len(b.items); i++ {
			if !yield(b.items[i].Value) {
				return
			}
		}
	}
}
