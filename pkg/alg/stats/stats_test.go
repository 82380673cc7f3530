package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	t.Parallel()

	samples := []time.Duration{40, 10, 30, 20}

	tests := []struct {
		name     string
		p        float64
		expected time.Duration
	}{
		{name: "min", p: 0, expected: 10},
		{name: "median_interpolates", p: 0.5, expected: 25},
		{name: "max", p: 1, expected: 40},
		{name: "clamped_below", p: -1, expected: 10},
		{name: "clamped_above", p: 2, expected: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Percentile(samples, tt.p))
		})
	}

	assert.Equal(t, []time.Duration{40, 10, 30, 20}, samples, "input must not be reordered")
	assert.Zero(t, Percentile(nil, P50))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	samples := make([]time.Duration, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, time.Duration(i)*time.Microsecond)
	}

	s := Summarize(samples)

	assert.Equal(t, 100, s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
	assert.Equal(t, 100*time.Microsecond, s.Max)
	assert.Equal(t, 50500*time.Nanosecond, s.Mean)
	assert.Equal(t, 50500*time.Nanosecond, s.P50)
	assert.InDelta(t, 95050, float64(s.P95), 1)
	assert.InDelta(t, 99010, float64(s.P99), 1)
	assert.InDelta(t, 28866, float64(s.StdDev), 1)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarize_Single(t *testing.T) {
	t.Parallel()

	s := Summarize([]time.Duration{7})
	assert.Equal(t, time.Duration(7), s.P99)
	assert.Equal(t, time.Duration(7), s.Mean)
	assert.Zero(t, s.StdDev)
}
