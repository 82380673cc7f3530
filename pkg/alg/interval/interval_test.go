package interval

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants.
const (
	testLow10   = 10
	testHigh19  = 19
	testLow20   = 20
	testHigh29  = 29
	testHigh39  = 39
	testLow50   = 50
	testHigh59  = 59
	testPoint9  = 9
	testPoint15 = 15
	testPoint25 = 25
	testPoint35 = 35
	testPoint55 = 55
	testValue1  = 1
	testValue2  = 2
	testValue3  = 3
)

// forEachAlgorithm runs fn as a parallel subtest for every algorithm.
func forEachAlgorithm(t *testing.T, fn func(t *testing.T, algo Algorithm)) {
	t.Helper()

	for _, algo := range Algorithms() {
		t.Run(algo.String(), func(t *testing.T) {
			t.Parallel()

			fn(t, algo)
		})
	}
}

func sorted(values []int) []int {
	out := slices.Clone(values)
	slices.Sort(out)

	return out
}

// TestNewInterval verifies interval construction and validation.
func TestNewInterval(t *testing.T) {
	t.Parallel()

	iv, err := NewInterval(testLow10, testHigh19, "a")
	require.NoError(t, err)
	assert.Equal(t, Interval[int, string]{From: testLow10, To: testHigh19, Value: "a"}, iv)

	_, err = NewInterval(testHigh19, testLow10, "a")
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewInterval(math.NaN(), 1.0, "a")
	require.ErrorIs(t, err, ErrInvalidRange)

	single, err := NewInterval(testLow10, testLow10, "a")
	require.NoError(t, err)
	assert.True(t, single.Contains(testLow10))
}

// TestInterval_Compare verifies lexicographic (From, To) ordering.
func TestInterval_Compare(t *testing.T) {
	t.Parallel()

	a := Interval[int, int]{From: 1, To: 5}
	b := Interval[int, int]{From: 1, To: 7}
	c := Interval[int, int]{From: 2, To: 3}

	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Positive(t, c.Compare(a))
	assert.Zero(t, a.Compare(Interval[int, int]{From: 1, To: 5, Value: 9}))
}

// TestInterval_ContainsOverlaps verifies inclusive containment and overlap.
func TestInterval_ContainsOverlaps(t *testing.T) {
	t.Parallel()

	iv := Interval[int, int]{From: testLow10, To: testHigh19}

	assert.True(t, iv.Contains(testLow10))
	assert.True(t, iv.Contains(testHigh19))
	assert.False(t, iv.Contains(testPoint9))
	assert.True(t, iv.Overlaps(testHigh19, testLow20+5))
	assert.True(t, iv.Overlaps(0, testLow10))
	assert.False(t, iv.Overlaps(testLow20, testHigh29))
}

// TestTree_SingleInterval covers a single interval with inclusive limits.
func TestTree_SingleInterval(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))

		for _, tc := range []struct {
			target int
			want   []int
		}{
			{testPoint15, []int{testValue1}},
			{testPoint9, nil},
			{testHigh19, []int{testValue1}},
			{testLow20, nil},
		} {
			got, err := tree.Query(tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "target %d", tc.target)
		}
	})
}

// TestTree_DisjointIntervals verifies gaps between intervals return nothing.
func TestTree_DisjointIntervals(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))
		require.NoError(t, tree.Add(testLow50, testHigh59, testValue2))

		got, err := tree.Query(testPoint35)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = tree.Query(testPoint55)
		require.NoError(t, err)
		assert.Equal(t, []int{testValue2}, got)
	})
}

// TestTree_OverlappingIntervals verifies both overlapping intervals are returned.
func TestTree_OverlappingIntervals(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add(testLow10, testHigh29, testValue1))
		require.NoError(t, tree.Add(testLow20, testHigh39, testValue2))

		got, err := tree.Query(testPoint25)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{testValue1, testValue2}, got)
	})
}

// TestTree_AddInvalidRange verifies a reversed interval is rejected without mutation.
func TestTree_AddInvalidRange(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))

		err := tree.Add(testLow20, testLow10, testValue1)
		require.ErrorIs(t, err, ErrInvalidRange)
		assert.Zero(t, tree.Count())
	})
}

// TestTree_QueryRange verifies inclusive range overlap and validation.
func TestTree_QueryRange(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))
		require.NoError(t, tree.Add(testLow20, testHigh29, testValue2))
		require.NoError(t, tree.Add(testLow50, testHigh59, testValue3))

		got, err := tree.QueryRange(testHigh19, testLow20)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{testValue1, testValue2}, got)

		got, err = tree.QueryRange(testPoint35, testLow50)
		require.NoError(t, err)
		assert.Equal(t, []int{testValue3}, got)

		got, err = tree.QueryRange(testHigh29+1, testLow50-1)
		require.NoError(t, err)
		assert.Nil(t, got)

		_, err = tree.QueryRange(testLow20, testLow10)
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

// TestTree_QueryExclusive verifies touching limits are excluded.
func TestTree_QueryExclusive(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))
		require.NoError(t, tree.Add(testLow20, testHigh29, testValue2))

		got, err := tree.QueryExclusive(testHigh19, testLow20)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = tree.QueryExclusive(testHigh19-1, testLow20+1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{testValue1, testValue2}, got)

		got, err = tree.QueryExclusive(testPoint15, testPoint15)
		require.NoError(t, err)
		assert.Empty(t, got)

		_, err = tree.QueryExclusive(testLow20, testLow10)
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

// TestTree_EmptyTree verifies an empty tree answers every query with nothing.
func TestTree_EmptyTree(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))

		got, err := tree.Query(0)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = tree.QueryRange(math.MinInt, math.MaxInt)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.Zero(t, tree.Count())
	})
}

// TestTree_RemoveRoundTrip verifies Remove drops every duplicate and restores Count.
func TestTree_RemoveRoundTrip(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))
		require.NoError(t, tree.Add(testLow20, testHigh29, testValue2))

		before := tree.Count()

		require.NoError(t, tree.Add(testLow10, testHigh29, testValue3))
		require.NoError(t, tree.Add(testLow50, testHigh59, testValue3))
		require.NoError(t, tree.Add(testLow10, testHigh19, testValue3))

		got, err := tree.Query(testPoint15)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{testValue1, testValue3, testValue3}, got)

		tree.Remove(testValue3)

		assert.Equal(t, before, tree.Count())

		got, err = tree.Query(testPoint15)
		require.NoError(t, err)
		assert.Equal(t, []int{testValue1}, got)

		got, err = tree.Query(testPoint55)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

// TestTree_RemoveMany verifies removing several values at once.
func TestTree_RemoveMany(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	for i := range 10 {
		require.NoError(t, tree.Add(i, i+testLow10, i))
	}

	tree.Remove(1, 3, 5, 7, 9, 42)

	assert.Equal(t, []int{0, 2, 4, 6, 8}, sorted(slices.Collect(tree.Values())))
}

// TestTree_RemoveFunc verifies predicate removal and its return count.
func TestTree_RemoveFunc(t *testing.T) {
	t.Parallel()

	tree := New[int, int](WithAlgorithm(Centered))
	for i := range 20 {
		require.NoError(t, tree.Add(i, i+1, i))
	}

	removed := tree.RemoveFunc(func(v int) bool { return v%2 == 0 })
	assert.Equal(t, 10, removed)
	assert.Equal(t, 10, tree.Count())

	got, err := tree.QueryRange(0, 30)
	require.NoError(t, err)

	for _, v := range got {
		assert.Equal(t, 1, v%2)
	}

	assert.Zero(t, tree.RemoveFunc(func(int) bool { return false }))
}

// TestNewFunc_CustomEquality verifies Remove uses the supplied equality.
func TestNewFunc_CustomEquality(t *testing.T) {
	t.Parallel()

	type payload struct {
		id   int
		tags []string
	}

	tree := NewFunc[int, payload](func(a, b payload) bool { return a.id == b.id })
	require.NoError(t, tree.Add(1, 5, payload{id: 1, tags: []string{"x"}}))
	require.NoError(t, tree.Add(2, 6, payload{id: 2}))

	tree.Remove(payload{id: 1})

	require.Equal(t, 1, tree.Count())

	got, err := tree.Query(3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].id)
}

// TestNewFunc_NilEqualityPanics verifies a nil equality is rejected.
func TestNewFunc_NilEqualityPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewFunc[int, []int](nil)
	})
}

// TestTree_Clear verifies Clear empties the tree and keeps capacity.
func TestTree_Clear(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo), WithCapacity(4))
		for i := range 100 {
			require.NoError(t, tree.Add(i, i+5, i))
		}

		_, err := tree.Query(50)
		require.NoError(t, err)

		capacity := cap(tree.buf.items)
		tree.Clear()

		assert.Zero(t, tree.Count())
		assert.Equal(t, capacity, cap(tree.buf.items))

		got, err := tree.Query(50)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))

		got, err = tree.Query(testPoint15)
		require.NoError(t, err)
		assert.Equal(t, []int{testValue1}, got)
	})
}

// TestTree_Iteration verifies Values and All cover every stored interval.
func TestTree_Iteration(t *testing.T) {
	t.Parallel()

	tree := New[int, string]()
	require.NoError(t, tree.Add(testLow10, testHigh19, "a"))
	require.NoError(t, tree.Add(testLow20, testHigh29, "b"))

	assert.ElementsMatch(t, []string{"a", "b"}, slices.Collect(tree.Values()))

	var froms []int
	for iv := range tree.All() {
		froms = append(froms, iv.From)
	}

	assert.ElementsMatch(t, []int{testLow10, testLow20}, froms)

	// Early termination.
	count := 0
	for range tree.Values() {
		count++

		break
	}

	assert.Equal(t, 1, count)
}

// TestTree_QueriesDoNotRebuild verifies repeated queries reuse the last build.
func TestTree_QueriesDoNotRebuild(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		for i := range 50 {
			require.NoError(t, tree.Add(i, i+3, i))
		}

		first, err := tree.Query(testPoint25)
		require.NoError(t, err)

		for range 5 {
			again, queryErr := tree.Query(testPoint25)
			require.NoError(t, queryErr)
			assert.ElementsMatch(t, first, again)
		}

		stats := tree.Stats()
		assert.Equal(t, int64(1), stats.Builds)
		assert.True(t, stats.Built)

		require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))
		assert.False(t, tree.Stats().Built)

		_, err = tree.Query(testPoint25)
		require.NoError(t, err)
		assert.Equal(t, int64(2), tree.Stats().Builds)
	})
}

// TestTree_EmptyQueryDoesNotAllocate verifies a built tree answers a query
// with no matches without heap allocations. It is not parallel because
// AllocsPerRun counts process-wide allocations.
func TestTree_EmptyQueryDoesNotAllocate(t *testing.T) {
	const (
		gapIntervals = 1000
		gapStride    = 10
		gapTarget    = 507
	)

	for _, algo := range Algorithms() {
		tree := New[int, int](WithAlgorithm(algo))
		for i := range gapIntervals {
			require.NoError(t, tree.Add(i*gapStride, i*gapStride+5, i))
		}

		require.NoError(t, tree.Build(t.Context()))

		allocs := testing.AllocsPerRun(100, func() {
			got, err := tree.Query(gapTarget)
			if err != nil || got != nil {
				t.Fatalf("%s: unexpected result %v, %v", algo, got, err)
			}

			got, err = tree.QueryRange(gapTarget, gapTarget+2)
			if err != nil || got != nil {
				t.Fatalf("%s: unexpected range result %v, %v", algo, got, err)
			}

			got, err = tree.QueryExclusive(gapTarget-2, gapTarget+3)
			if err != nil || got != nil {
				t.Fatalf("%s: unexpected exclusive result %v, %v", algo, got, err)
			}
		})
		assert.Zero(t, allocs, algo.String())
	}

	empty := New[int, int](WithAlgorithm(Centered))
	require.NoError(t, empty.Build(t.Context()))

	allocs := testing.AllocsPerRun(100, func() {
		got, err := empty.Query(gapTarget)
		if err != nil || got != nil {
			t.Fatalf("empty tree: unexpected result %v, %v", got, err)
		}
	})
	assert.Zero(t, allocs)
}
// TestTree_RemoveNothingKeepsBuild verifies a no-op removal does not dirty the tree.
func TestTree_RemoveNothingKeepsBuild(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	require.NoError(t, tree.Add(testLow10, testHigh19, testValue1))
	require.NoError(t, tree.Build(t.Context()))

	tree.Remove(testValue2)
	tree.Remove()

	assert.True(t, tree.Stats().Built)
}

// TestTree_FloatKeys verifies float keys and NaN rejection.
func TestTree_FloatKeys(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[float64, string](WithAlgorithm(algo))
		require.NoError(t, tree.Add(0.5, 1.5, "a"))
		require.NoError(t, tree.Add(1.25, 3.75, "b"))

		got, err := tree.Query(1.3)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, got)

		require.ErrorIs(t, tree.Add(math.NaN(), 1, "c"), ErrInvalidRange)

		_, err = tree.Query(math.NaN())
		require.ErrorIs(t, err, ErrInvalidRange)

		_, err = tree.QueryRange(0, math.NaN())
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

// TestTree_StringKeys verifies lexicographic string keys.
func TestTree_StringKeys(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[string, int](WithAlgorithm(algo))
		require.NoError(t, tree.Add("apple", "banana", testValue1))
		require.NoError(t, tree.Add("cherry", "grape", testValue2))

		got, err := tree.Query("avocado")
		require.NoError(t, err)
		assert.Equal(t, []int{testValue1}, got)

		got, err = tree.QueryRange("b", "d")
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{testValue1, testValue2}, got)
	})
}

// TestTree_VisitStopsEarly verifies Visit honors a false return.
func TestTree_VisitStopsEarly(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, algo Algorithm) {
		tree := New[int, int](WithAlgorithm(algo))
		for i := range 100 {
			require.NoError(t, tree.Add(0, 1000, i))
		}

		visited := 0
		err := tree.Visit(testLow10, testLow20, func(Interval[int, int]) bool {
			visited++

			return visited < 3
		})
		require.NoError(t, err)
		assert.Equal(t, 3, visited)

		err = tree.Visit(testLow20, testLow10, func(Interval[int, int]) bool { return true })
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

// TestParseAlgorithm verifies names and aliases.
func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Algorithm
		wantErr bool
	}{
		{"augmented", Augmented, false},
		{"light", Augmented, false},
		{" Quick ", Centered, false},
		{"centered", Centered, false},
		{"reference", Linear, false},
		{"linear", Linear, false},
		{"avl", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.name)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownAlgorithm)

			continue
		}

		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		canonical, err := ParseAlgorithm(got.String())
		require.NoError(t, err)
		assert.Equal(t, got, canonical)
	}

	assert.Equal(t, "algorithm(9)", Algorithm(9).String())
}

// TestNew_UnknownAlgorithmFallsBack verifies an out-of-range algorithm uses Augmented.
func TestNew_UnknownAlgorithmFallsBack(t *testing.T) {
	t.Parallel()

	tree := New[int, int](WithAlgorithm(Algorithm(42)))
	assert.Equal(t, Augmented, tree.Algorithm())
}
