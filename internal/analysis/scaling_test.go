package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleMinMax(t *testing.T) {
	got := Scale([]float64{2, 4, 6}, ScaleMinMax)
	assert.Equal(t, []float64{0, 0.5, 1}, got)
}

func TestScaleZScore(t *testing.T) {
	got := Scale([]float64{2, 4, 4, 4, 5, 5, 7, 9}, ScaleZScore)
	// mean 5, population std 2
	want := []float64{-1.5, -0.5, -0.5, -0.5, 0, 0, 1, 2}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestScaleRobust(t *testing.T) {
	// sorted: 1 2 3 4 5 6 7 8; median idx 4 -> 5, q1 idx 2 -> 3, q3 idx 6 -> 7
	got := Scale([]float64{8, 1, 5, 3, 7, 2, 6, 4}, ScaleRobust)
	assert.Equal(t, []float64{0.75, -1, 0, -0.5, 0.5, -0.75, 0.25, -0.25}, got)
}

func TestScaleConstantSequenceUnchanged(t *testing.T) {
	in := []float64{3, 3, 3, 3}
	for _, m := range []ScaleMethod{ScaleNone, ScaleMinMax, ScaleZScore, ScaleRobust} {
		t.Run(m.String(), func(t *testing.T) {
			got := Scale(in, m)
			assert.Equal(t, in, got)
			for _, v := range got {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
		})
	}
}

func TestScaleDoesNotMutateInput(t *testing.T) {
	in := []float64{5, 1, 3}
	_ = Scale(in, ScaleMinMax)
	_ = Scale(in, ScaleRobust)
	assert.Equal(t, []float64{5, 1, 3}, in)

	out := Scale(in, ScaleNone)
	out[0] = 100
	assert.Equal(t, 5.0, in[0], "result must not alias the input")
}

func TestScaleEmpty(t *testing.T) {
	for _, m := range []ScaleMethod{ScaleNone, ScaleMinMax, ScaleZScore, ScaleRobust} {
		assert.Empty(t, Scale(nil, m))
	}
}

func TestParseScaleMethod(t *testing.T) {
	tests := map[string]ScaleMethod{
		"":        ScaleNone,
		"none":    ScaleNone,
		"MinMax":  ScaleMinMax,
		"z-score": ScaleZScore,
		"robust":  ScaleRobust,
		"iqr":     ScaleRobust,
	}
	for in, want := range tests {
		got, err := ParseScaleMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScaleMethod("log")
	assert.Error(t, err)
}
