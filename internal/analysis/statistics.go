// Package analysis implements the descriptive statistics, scaling, binning and
// percentile engines behind the dashboard views. Every function here is pure:
// inputs are never mutated and no state is kept between calls.
package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

// Summary is the descriptive summary of one numeric sample set.
// The zero value is the summary of an empty set.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
}

// FieldSummary pairs a Summary with the field it was computed for.
type FieldSummary struct {
	Field records.Field
	Summary
	// Robust outlier count (|z| > OutlierThreshold, z from median/MAD).
	Outliers         int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
}

// DefaultOutlierThreshold is the robust |z| cutoff used by DescribeAll.
const DefaultOutlierThreshold = 3.5

// ValidValues returns the finite, non-negative entries of values in order.
func ValidValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if validValue(v) {
			out = append(out, v)
		}
	}
	return out
}

func validValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Sample extracts the numeric sample set of f across recs.
func Sample(recs []records.Record, f records.Field) []float64 {
	out := make([]float64, 0, len(recs))
	for i := range recs {
		if v := f.Value(&recs[i]); validValue(v) {
			out = append(out, v)
		}
	}
	return out
}

// ComputeStatistics summarizes field f over recs.
func ComputeStatistics(recs []records.Record, f records.Field) Summary {
	return describeValid(Sample(recs, f))
}

// Describe summarizes raw values, dropping NaN, infinite and negative entries.
func Describe(values []float64) Summary {
	return describeValid(ValidValues(values))
}

func describeValid(valid []float64) Summary {
	if len(valid) == 0 {
		return Summary{}
	}
	data := stats.Float64Data(valid)
	// Errors below only signal empty input, which is excluded above.
	mean, _ := stats.Mean(data)
	std, _ := stats.StandardDeviationPopulation(data)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)
	p25, _ := stats.PercentileNearestRank(data, 25)
	p50, _ := stats.PercentileNearestRank(data, 50)
	p75, _ := stats.PercentileNearestRank(data, 75)
	return Summary{
		Count: len(valid),
		Mean:  mean,
		Std:   std,
		Min:   lo,
		Max:   hi,
		P25:   p25,
		P50:   p50,
		P75:   p75,
	}
}

// NearestRankIndex returns the zero-based index of percentile p (0..100) in a
// sorted sequence of length n: ceil(n*p/100) - 1, clamped to [0, n-1].
// It returns -1 when n is zero.
func NearestRankIndex(n int, p float64) int {
	if n <= 0 {
		return -1
	}
	idx := int(math.Ceil(float64(n)*p/100)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// DescribeAll summarizes several fields at once, with robust outlier counts.
// With no fields given it covers every numeric field in schema order.
func DescribeAll(recs []records.Record, fields ...records.Field) []FieldSummary {
	if len(fields) == 0 {
		fields = records.NumericFields()
	}
	out := make([]FieldSummary, 0, len(fields))
	for _, f := range fields {
		sample := Sample(recs, f)
		fs := FieldSummary{Field: f, Summary: describeValid(sample), OutlierThreshold: DefaultOutlierThreshold}
		fs.Outliers, fs.OutliersMaxAbsZ = robustOutliers(sample, DefaultOutlierThreshold)
		out = append(out, fs)
	}
	return out
}

// robustOutliers counts values with |0.6745*(v-median)/MAD| > thr.
// Samples shorter than 8 are too small to judge and report zero.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	if len(vals) < 8 {
		return 0, 0
	}
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	median, _ = stats.Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	mad, _ = stats.Median(dev)
	return median, mad
}
