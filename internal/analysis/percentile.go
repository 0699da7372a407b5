package analysis

import (
	"sort"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

// PercentileRecord is a read-only view of the record at a percentile rank.
type PercentileRecord struct {
	Record     *records.Record
	Index      int // position in the source slice
	Rank       int // position in ascending sort order
	Percentile float64
	SortValue  float64
}

// sortedOrder returns source indices of recs ordered ascending by key.
// Ties keep source order.
func sortedOrder(recs []records.Record, key records.Field) ([]int, []float64) {
	idx := make([]int, len(recs))
	vals := make([]float64, len(recs))
	for i := range recs {
		idx[i] = i
		vals[i] = key.Value(&recs[i])
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })
	return idx, vals
}

func view(recs []records.Record, order []int, vals []float64, rank int, p float64) PercentileRecord {
	src := order[rank]
	return PercentileRecord{
		Record:     &recs[src],
		Index:      src,
		Rank:       rank,
		Percentile: p,
		SortValue:  vals[src],
	}
}

// SelectPercentiles returns, for each requested percentile, the record at the
// nearest-rank position after sorting ascending by key. The records are never
// copied or reordered. Empty input yields nil.
func SelectPercentiles(recs []records.Record, key records.Field, percentiles []float64) []PercentileRecord {
	if len(recs) == 0 {
		return nil
	}
	order, vals := sortedOrder(recs, key)
	out := make([]PercentileRecord, 0, len(percentiles))
	for _, p := range percentiles {
		out = append(out, view(recs, order, vals, NearestRankIndex(len(recs), p), p))
	}
	return out
}

// Neighborhood returns up to size records around percentile p in sort order.
// The window is centered on the rank and shifted inward at either end.
func Neighborhood(recs []records.Record, key records.Field, p float64, size int) []PercentileRecord {
	n := len(recs)
	if n == 0 || size <= 0 {
		return nil
	}
	order, vals := sortedOrder(recs, key)
	rank := NearestRankIndex(n, p)
	if size > n {
		size = n
	}
	start := rank - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	out := make([]PercentileRecord, 0, size)
	for r := start; r < start+size; r++ {
		out = append(out, view(recs, order, vals, r, p))
	}
	return out
}

// Extremes returns the n smallest and n largest records by key, both in
// ascending order.
func Extremes(recs []records.Record, key records.Field, n int) (bottom, top []PercentileRecord) {
	total := len(recs)
	if total == 0 || n <= 0 {
		return nil, nil
	}
	if n > total {
		n = total
	}
	order, vals := sortedOrder(recs, key)
	for r := 0; r < n; r++ {
		bottom = append(bottom, view(recs, order, vals, r, rankPercent(r, total)))
	}
	for r := total - n; r < total; r++ {
		top = append(top, view(recs, order, vals, r, rankPercent(r, total)))
	}
	return bottom, top
}

// rankPercent is the smallest percentile whose nearest rank is r.
func rankPercent(r, n int) float64 {
	return float64(r+1) * 100 / float64(n)
}
