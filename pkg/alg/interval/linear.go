package interval

import "cmp"

// linear answers queries by scanning every interval. It needs no build
// work and serves as the reference for the indexed algorithms.
type linear[K cmp.Ordered, V any] struct {
	items []Interval[K, V]
}

func (l *linear[K, V]) build(items []Interval[K, V]) (buildInfo, error) {
	l.items = items

	return buildInfo{}, nil
}

func (l *linear[K, V]) visit(b bounds[K], fn func(*Interval[K, V]) bool) {
	for i := range l.items {
		iv := &l.items[i]
		if b.overlaps(iv.From, iv.To) && !fn(iv) {
			return
		}
	}
}

func (l *linear[K, V]) collect(b bounds[K], dst []V) []V {
	for i := range l.items {
		iv := &l.items[i]
		if b.overlaps(iv.From, iv.To) {
			dst = append(dst, iv.Value)
		}
	}

	return dst
}
