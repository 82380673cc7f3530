package interval

import (
	"cmp"
	"slices"
)

// scanWidth is the sub-range width below which the augmented traversal
// scans linearly instead of descending.
const scanWidth = 6

// span is an inclusive index range of the sorted array.
type span struct {
	lo, hi int
}

// augmented stores the intervals sorted by (From, To) as an implicit binary
// tree. The node for [lo, hi] sits at lo + (hi-lo+1)/2 and maxEnd holds the
// largest To in its subtree.
type augmented[K cmp.Ordered, V any] struct {
	items  []Interval[K, V]
	maxEnd []K
	height int
}

func (a *augmented[K, V]) build(items []Interval[K, V]) (buildInfo, error) {
	slices.SortFunc(items, compareIntervals[K, V])

	a.items = items

	if cap(a.maxEnd) < len(items) {
		a.maxEnd = make([]K, len(items))
	}

	a.maxEnd = a.maxEnd[:len(items)]
	a.height = 0

	if len(items) == 0 {
		return buildInfo{}, nil
	}

	_, height, err := a.updateMax(0, len(items)-1, 1)
	if err != nil {
		return buildInfo{}, err
	}

	a.height = height

	return buildInfo{height: height, nodes: len(items)}, nil
}

// updateMax fills maxEnd for [lo, hi] in post-order and returns the
// subtree maximum and its depth.
func (a *augmented[K, V]) updateMax(lo, hi, depth int) (K, int, error) {
	if depth > maxBuildDepth {
		var zero K

		return zero, 0, newDepthError(Augmented, depth)
	}

	center := lo + (hi-lo+1)/2
	maxEnd := a.items[center].To
	height := depth

	if lo < center {
		leftMax, leftHeight, err := a.updateMax(lo, center-1, depth+1)
		if err != nil {
			return maxEnd, 0, err
		}

		maxEnd = max(maxEnd, leftMax)
		height = max(height, leftHeight)
	}

	if center < hi {
		rightMax, rightHeight, err := a.updateMax(center+1, hi, depth+1)
		if err != nil {
			return maxEnd, 0, err
		}

		maxEnd = max(maxEnd, rightMax)
		height = max(height, rightHeight)
	}

	a.maxEnd[center] = maxEnd

	return maxEnd, height, nil
}

func (a *augmented[K, V]) visit(b bounds[K], fn func(*Interval[K, V]) bool) {
	a.walk(b, fn)
}

func (a *augmented[K, V]) collect(b bounds[K], dst []V) []V {
	a.walk(b, func(iv *Interval[K, V]) bool {
		dst = append(dst, iv.Value)

		return true
	})

	return dst
}

func (a *augmented[K, V]) walk(b bounds[K], fn func(*Interval[K, V]) bool) {
	if len(a.items) == 0 {
		return
	}

	// Each level leaves at most its left sibling pending, so height+1
	// entries always suffice.
	var inline [inlineStack]span

	stack := inline[:0]
	if a.height+1 > inlineStack {
		stack = make([]span, 0, a.height+1)
	}

	stack = append(stack, span{lo: 0, hi: len(a.items) - 1})

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.hi-s.lo < scanWidth {
			for i := s.lo; i <= s.hi; i++ {
				iv := &a.items[i]
				if b.startsAfter(iv.From) {
					break
				}

				if b.overlaps(iv.From, iv.To) && !fn(iv) {
					return
				}
			}

			continue
		}

		center := s.lo + (s.hi-s.lo+1)/2

		// Nothing below center reaches the window.
		if b.endsBefore(a.maxEnd[center]) {
			continue
		}

		stack = append(stack, span{lo: s.lo, hi: center - 1})

		iv := &a.items[center]
		if b.startsAfter(iv.From) {
			continue
		}

		if b.overlaps(iv.From, iv.To) && !fn(iv) {
			return
		}

		stack = append(stack, span{lo: center + 1, hi: s.hi})
	}
}
