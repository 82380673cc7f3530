package interval

import "cmp"

// Find folds acc over every interval overlapping [low, high], starting from initial.
func Find[K cmp.Ordered, V, S any](
	v Visitor[K, V], low, high K, initial S, acc func(Interval[K, V], S) S,
) (S, error) {
	state := initial

	err := v.Visit(low, high, func(iv Interval[K, V]) bool {
		state = acc(iv, state)

		return true
	})
	if err != nil {
		return initial, err
	}

	return state, nil
}

// FindPoint folds acc over every interval containing target.
func FindPoint[K cmp.Ordered, V, S any](
	v Visitor[K, V], target K, initial S, acc func(Interval[K, V], S) S,
) (S, error) {
	return Find(v, target, target, initial, acc)
}

// FindList appends every interval overlapping [low, high] to dst.
func FindList[K cmp.Ordered, V any](v Visitor[K, V], low, high K, dst []Interval[K, V]) ([]Interval[K, V], error) {
	return Find(v, low, high, dst, func(iv Interval[K, V], acc []Interval[K, V]) []Interval[K, V] {
		return append(acc, iv)
	})
}
