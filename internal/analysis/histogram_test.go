package analysis

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinCount(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		policy BinPolicy
		cap    int
		want   int
	}{
		{"sturges small n floors at 5", 5, BinSturges, 20, 5},
		{"sturges 1000", 1000, BinSturges, 20, 11},
		{"sturges capped at 20", 1 << 24, BinSturges, 20, 20},
		{"sturges cap 30", 1 << 24, BinSturges, 30, 25},
		{"sturges default cap", 1 << 30, BinSturges, 0, 20},
		{"fd 500", 500, BinFreedmanDiaconis, 0, 16},
		{"fd capped at 50", 1_000_000, BinFreedmanDiaconis, 0, 50},
		{"scott 500", 500, BinScott, 0, 28},
		{"scott capped at 40", 1_000_000, BinScott, 0, 40},
		{"scott floor", 2, BinScott, 0, 5},
		{"empty", 0, BinScott, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BinCount(tt.n, tt.policy, tt.cap))
		})
	}
}

func TestBuildHistogramSturgesFiveValues(t *testing.T) {
	bins := BuildHistogram([]float64{0, 0, 0, 0, 10}, HistogramOptions{Policy: BinSturges})
	require.Len(t, bins, 5)

	assert.Equal(t, 0.0, bins[0].Start)
	assert.Equal(t, 10.0, bins[4].End)
	assert.Equal(t, 4, bins[0].Count)
	assert.Equal(t, 1, bins[4].Count)
	for _, b := range bins[1:4] {
		assert.Equal(t, 0, b.Count)
	}
	assert.Equal(t, "0.00 - 2.00", bins[0].Range)
	assert.Equal(t, "8.00 - 10.00", bins[4].Range)
	assert.InDelta(t, 80.0, bins[0].Percentage, 1e-9)
	assert.InDelta(t, 20.0, bins[4].Percentage, 1e-9)

	// without scaling the scaled axis mirrors the original
	assert.Equal(t, bins[0].Count, bins[0].ScaledCount)
	assert.Equal(t, bins[0].Range, bins[0].ScaledRange)
}

func TestBuildHistogramCountsSumToValidSample(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for _, policy := range []BinPolicy{BinSturges, BinFreedmanDiaconis, BinScott} {
		for trial := 0; trial < 50; trial++ {
			n := 1 + r.IntN(2000)
			vals := make([]float64, n)
			for i := range vals {
				vals[i] = r.ExpFloat64() * 100
			}
			vals = append(vals, math.NaN(), -4)

			bins := BuildHistogram(vals, HistogramOptions{Policy: policy, Scale: ScaleZScore})
			total, scaledTotal := 0, 0
			pct := 0.0
			for i, b := range bins {
				total += b.Count
				scaledTotal += b.ScaledCount
				pct += b.Percentage
				if i > 0 {
					require.Equal(t, bins[i-1].End, b.Start, "bins must be contiguous")
				}
			}
			require.Equal(t, n, total)
			require.Equal(t, n, scaledTotal)
			require.InDelta(t, 100.0, pct, 1e-6)
		}
	}
}

func TestBuildHistogramDualBinning(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 100}
	bins := BuildHistogram(vals, HistogramOptions{Policy: BinSturges, Scale: ScaleRobust})
	require.Len(t, bins, 5)

	// robust: median 3, IQR 4-2 = 2 -> scaled range [-1, 48.5]
	assert.InDelta(t, -1.0, bins[0].ScaledStart, 1e-12)
	assert.InDelta(t, 48.5, bins[4].ScaledEnd, 1e-12)
	assert.Equal(t, 1.0, bins[0].Start)
	assert.Equal(t, 100.0, bins[4].End)
	assert.Equal(t, 4, bins[0].Count)
	assert.Equal(t, 4, bins[0].ScaledCount)
}

func TestBuildHistogramIdempotent(t *testing.T) {
	vals := []float64{3.3, 1.1, 9.9, 4.4, 4.4, 7.7, 0, 12.5}
	opt := HistogramOptions{Policy: BinScott, Scale: ScaleMinMax}
	assert.Equal(t, BuildHistogram(vals, opt), BuildHistogram(vals, opt))
}

func TestBuildHistogramConstantAndEmpty(t *testing.T) {
	assert.Nil(t, BuildHistogram(nil, HistogramOptions{}))
	assert.Nil(t, BuildHistogram([]float64{math.NaN(), -1}, HistogramOptions{}))

	bins := BuildHistogram([]float64{7, 7, 7}, HistogramOptions{Scale: ScaleZScore})
	require.Len(t, bins, 5)
	assert.Equal(t, 3, bins[0].Count)
	assert.Equal(t, 3, bins[0].ScaledCount)
	assert.Equal(t, 7.0, bins[0].ScaledStart, "constant input is not rescaled")
}

func TestCumulativePercentages(t *testing.T) {
	bins := BuildHistogram([]float64{0, 0, 0, 0, 10}, HistogramOptions{})
	cum := CumulativePercentages(bins)
	require.Len(t, cum, 5)
	assert.InDelta(t, 80.0, cum[0], 1e-9)
	assert.InDelta(t, 80.0, cum[3], 1e-9)
	assert.InDelta(t, 100.0, cum[4], 1e-9)
	assert.Empty(t, CumulativePercentages(nil))
}

func TestParseBinPolicy(t *testing.T) {
	for in, want := range map[string]BinPolicy{"": BinSturges, "Sturges": BinSturges, "fd": BinFreedmanDiaconis, "scott": BinScott} {
		got, err := ParseBinPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBinPolicy("doane")
	assert.Error(t, err)
}
