package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ScaleMethod selects a feature scaling policy.
type ScaleMethod int

const (
	ScaleNone ScaleMethod = iota
	ScaleMinMax
	ScaleZScore
	ScaleRobust
)

var scaleNames = map[ScaleMethod]string{
	ScaleNone:   "none",
	ScaleMinMax: "minmax",
	ScaleZScore: "zscore",
	ScaleRobust: "robust",
}

func (m ScaleMethod) String() string {
	if s, ok := scaleNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ScaleMethod(%d)", int(m))
}

// ParseScaleMethod accepts none, minmax, zscore and robust (plus a few spellings).
func ParseScaleMethod(s string) (ScaleMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return ScaleNone, nil
	case "minmax", "min-max", "normalize":
		return ScaleMinMax, nil
	case "zscore", "z-score", "standard", "standardize":
		return ScaleZScore, nil
	case "robust", "iqr":
		return ScaleRobust, nil
	default:
		return ScaleNone, fmt.Errorf("unknown scale method %q (use none|minmax|zscore|robust)", s)
	}
}

// Scale returns a new slice with method applied to values. Zero range,
// zero standard deviation and zero IQR leave the values unscaled.
func Scale(values []float64, method ScaleMethod) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if len(values) == 0 {
		return out
	}

	switch method {
	case ScaleMinMax:
		lo, hi := floats.Min(values), floats.Max(values)
		span := hi - lo
		if span == 0 {
			return out
		}
		for i, v := range values {
			out[i] = (v - lo) / span
		}
	case ScaleZScore:
		mean, variance := stat.PopMeanVariance(values, nil)
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			return out
		}
		for i, v := range values {
			out[i] = (v - mean) / std
		}
	case ScaleRobust:
		median, iqr := floorQuartiles(values)
		if iqr == 0 {
			return out
		}
		for i, v := range values {
			out[i] = (v - median) / iqr
		}
	}
	return out
}

// floorQuartiles returns the median and Q3-Q1 picked by floored index into
// a sorted copy, without interpolation.
func floorQuartiles(values []float64) (median, iqr float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	median = sorted[n/2]
	q1 := sorted[n/4]
	q3 := sorted[(3*n)/4]
	return median, q3 - q1
}
