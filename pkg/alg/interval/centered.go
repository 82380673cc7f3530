package interval

import (
	"cmp"
	"slices"
)

// Slot 0 of the node arena is the null node; the root is always slot 1.
const (
	nullNode = 0
	rootNode = 1
)

// centeredNode covers every interval that contains center. Its intervals
// occupy items[start:start+count] sorted by (From, To), and the same range
// of halves holds them by descending To. A non-zero childBase points at the
// left child; the right child is childBase+1.
type centeredNode[K cmp.Ordered] struct {
	center    K
	childBase int
	start     int
	count     int
}

// indexedHalf is the end of an interval and its position in items.
type indexedHalf[K cmp.Ordered] struct {
	end K
	ref int
}

// centered is a centered-partition interval tree packed into flat arrays.
// Each interval is stored twice: once in items and once as a half.
type centered[K cmp.Ordered, V any] struct {
	items  []Interval[K, V]
	halves []indexedHalf[K]
	nodes  []centeredNode[K]
	height int
}

func (c *centered[K, V]) build(items []Interval[K, V]) (buildInfo, error) {
	c.items = items
	c.nodes = append(c.nodes[:0], centeredNode[K]{}, centeredNode[K]{})
	c.height = 0

	if n := len(items); cap(c.halves) < n || cap(c.halves) > 2*n {
		c.halves = make([]indexedHalf[K], n)
	} else {
		c.halves = c.halves[:n]
	}

	if len(items) == 0 {
		return buildInfo{nodes: len(c.nodes)}, nil
	}

	slices.SortFunc(items, compareIntervals[K, V])

	height, err := c.buildNode(rootNode, 0, len(items)-1, 1)
	if err != nil {
		return buildInfo{}, err
	}

	c.height = height

	return buildInfo{height: height, nodes: len(c.nodes)}, nil
}

// buildNode partitions items[lo:hi+1] around a center key, fills node idx
// and recurses into the pure-left and pure-right remainders. It returns the
// depth of the deepest node built.
func (c *centered[K, V]) buildNode(idx, lo, hi, depth int) (int, error) {
	if depth > maxBuildDepth {
		return 0, newDepthError(Centered, depth)
	}

	width := hi - lo + 1
	if width <= 0 {
		return depth - 1, nil
	}

	centerIndex := lo + width/2
	center := c.items[centerIndex].From

	for centerIndex < hi && c.items[centerIndex+1].From == center {
		centerIndex++
	}

	// Move pure-left intervals in front of the spanning ones, keeping their
	// order. Pure-right intervals start after center and are never touched.
	i, count := lo, 0
	for ; i <= hi; i++ {
		iv := c.items[i]
		if iv.From > center {
			break
		}

		if iv.To >= center {
			count++

			continue
		}

		if count > 0 {
			c.items[i], c.items[i-count] = c.items[i-count], iv
		}
	}

	start := i - count
	spanning := c.items[start:i]
	slices.SortFunc(spanning, compareIntervals[K, V])

	halves := c.halves[start:i]
	for j := range spanning {
		halves[j] = indexedHalf[K]{end: spanning[j].To, ref: start + j}
	}

	slices.SortFunc(halves, func(a, b indexedHalf[K]) int {
		if r := cmp.Compare(b.end, a.end); r != 0 {
			return r
		}

		return cmp.Compare(b.ref, a.ref)
	})

	if count == width {
		c.nodes[idx] = centeredNode[K]{center: center, start: start, count: count}

		return depth, nil
	}

	childBase := len(c.nodes)
	c.nodes[idx] = centeredNode[K]{center: center, childBase: childBase, start: start, count: count}
	c.nodes = append(c.nodes, centeredNode[K]{}, centeredNode[K]{})

	leftHeight, err := c.buildNode(childBase, lo, start-1, depth+1)
	if err != nil {
		return 0, err
	}

	rightHeight, err := c.buildNode(childBase+1, i, hi, depth+1)
	if err != nil {
		return 0, err
	}

	return max(depth, leftHeight, rightHeight), nil
}

func (c *centered[K, V]) visit(b bounds[K], fn func(*Interval[K, V]) bool) {
	c.walk(b, fn)
}

func (c *centered[K, V]) collect(b bounds[K], dst []V) []V {
	c.walk(b, func(iv *Interval[K, V]) bool {
		dst = append(dst, iv.Value)

		return true
	})

	return dst
}

func (c *centered[K, V]) walk(b bounds[K], fn func(*Interval[K, V]) bool) {
	if len(c.items) == 0 {
		return
	}

	var inline [inlineStack]int

	stack := inline[:0]
	if c.height+1 > inlineStack {
		stack = make([]int, 0, c.height+1)
	}

	stack = append(stack, rootNode)

	for len(stack) > 0 {
		node := c.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if node.count == 0 {
			continue
		}

		end := node.start + node.count

		switch {
		case b.high < node.center:
			// Window left of center: spanning intervals match while they start early enough.
			for i := node.start; i < end; i++ {
				iv := &c.items[i]
				if b.startsAfter(iv.From) {
					break
				}

				if b.overlaps(iv.From, iv.To) && !fn(iv) {
					return
				}
			}

			if node.childBase != nullNode {
				stack = append(stack, node.childBase)
			}
		case b.low > node.center:
			for i := node.start; i < end; i++ {
				h := c.halves[i]
				if b.endsBefore(h.end) {
					break
				}

				iv := &c.items[h.ref]
				if b.overlaps(iv.From, iv.To) && !fn(iv) {
					return
				}
			}

			if node.childBase != nullNode {
				stack = append(stack, node.childBase+1)
			}
		default:
			for i := node.start; i < end; i++ {
				iv := &c.items[i]
				if b.overlaps(iv.From, iv.To) && !fn(iv) {
					return
				}
			}

			if node.childBase == nullNode {
				continue
			}

			if b.low < node.center {
				stack = append(stack, node.childBase)
			}

			if b.high > node.center {
				stack = append(stack, node.childBase+1)
			}
		}
	}
}
