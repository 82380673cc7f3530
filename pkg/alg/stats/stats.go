// Package stats summarizes latency samples.
// Standard deviation is the population form (÷n).
package stats

import (
	"math"
	"slices"
	"time"
)

// Percentiles reported by Summarize.
const (
	P50 = 0.50
	P95 = 0.95
	P99 = 0.99
)

// Summary describes a sample of durations.
type Summary struct {
	Count  int
	Mean   time.Duration
	StdDev time.Duration
	Min    time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// Summarize computes the summary of samples. The input is sorted in place.
// An empty sample yields the zero Summary.
func Summarize(samples []time.Duration) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	slices.Sort(samples)

	mean, stddev := meanStdDev(samples)

	return Summary{
		Count:  len(samples),
		Mean:   time.Duration(mean),
		StdDev: time.Duration(stddev),
		Min:    samples[0],
		P50:    percentileSorted(samples, P50),
		P95:    percentileSorted(samples, P95),
		P99:    percentileSorted(samples, P99),
		Max:    samples[len(samples)-1],
	}
}

// Percentile returns the p-th percentile of samples, p in [0, 1], using
// linear interpolation between the closest ranks. samples is not modified.
func Percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []time.Duration, p float64) time.Duration {
	rank := min(max(p, 0), 1) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)

	return time.Duration(float64(sorted[lower])*(1-frac) + float64(sorted[upper])*frac)
}

func meanStdDev(samples []time.Duration) (mean, stddev float64) {
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}

	mean = sum / float64(len(samples))

	var sumSq float64

	for _, s := range samples {
		diff := float64(s) - mean
		sumSq += diff * diff
	}

	return mean, math.Sqrt(sumSq / float64(len(samples)))
}
