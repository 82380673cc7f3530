package interval_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
)

const (
	concurrentIntervals = 20_000
	concurrentReaders   = 10
	concurrentQueryMax  = 1200
)

// TestConcurrentQueries verifies readers racing on the first build all see
// the same results as a pre-built control tree.
func TestConcurrentQueries(t *testing.T) {
	t.Parallel()

	for _, algo := range []interval.Algorithm{interval.Augmented, interval.Centered} {
		t.Run(algo.String(), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(42, uint64(algo)))
			control := interval.New[int, int](interval.WithAlgorithm(interval.Linear))
			tree := interval.New[int, int](interval.WithAlgorithm(algo))

			start := 0
			for i := range concurrentIntervals {
				start += rng.IntN(3)
				end := start + rng.IntN(20)

				require.NoError(t, control.Add(start, end, i))
				require.NoError(t, tree.Add(start, end, i))
			}

			expected := make([][]int, concurrentQueryMax)
			for target := range concurrentQueryMax {
				got, err := control.Query(target)
				require.NoError(t, err)

				slices.Sort(got)
				expected[target] = got
			}

			var group errgroup.Group

			for range concurrentReaders {
				group.Go(func() error {
					for target := range concurrentQueryMax {
						got, err := tree.Query(target)
						if err != nil {
							return err
						}

						slices.Sort(got)

						if !slices.Equal(expected[target], got) {
							t.Errorf("target %d: got %v, want %v", target, got, expected[target])
						}
					}

					return nil
				})
			}

			require.NoError(t, group.Wait())
			require.Equal(t, int64(1), tree.Stats().Builds)
		})
	}
}
