package interval

import "cmp"

// inlineStack is the traversal stack depth kept off the heap. Deeper trees
// allocate a stack sized from their measured height.
const inlineStack = 64

// bounds is a query window shared by every traversal. A point query is a
// closed window with low == high. An open window excludes touching limits.
type bounds[K cmp.Ordered] struct {
	low  K
	high K
	open bool
}

func pointBounds[K cmp.Ordered](target K) bounds[K] {
	return bounds[K]{low: target, high: target}
}

// overlaps reports whether [from, to] intersects the window.
func (b bounds[K]) overlaps(from, to K) bool {
	if b.open {
		return from < b.high && to > b.low
	}

	return from <= b.high && to >= b.low
}

// startsAfter reports whether an interval starting at from lies wholly past
// the window. Every interval sorted after it does too.
func (b bounds[K]) startsAfter(from K) bool {
	if b.open {
		return from >= b.high
	}

	return from > b.high
}

// endsBefore reports whether an interval ending at to lies wholly before the window.
func (b bounds[K]) endsBefore(to K) bool {
	if b.open {
		return to <= b.low
	}

	return to < b.low
}

// empty reports whether no interval can match. Only open windows of zero
// width are empty.
func (b bounds[K]) empty() bool {
	return b.open && b.low == b.high
}
