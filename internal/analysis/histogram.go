package analysis

import (
	"fmt"
	"math"
	"strings"
)

// BinPolicy selects the bin-count heuristic. It never affects how values are
// counted, only how many bins there are.
type BinPolicy int

const (
	BinSturges BinPolicy = iota
	BinFreedmanDiaconis
	BinScott
)

func (p BinPolicy) String() string {
	switch p {
	case BinSturges:
		return "sturges"
	case BinFreedmanDiaconis:
		return "freedman-diaconis"
	case BinScott:
		return "scott"
	default:
		return fmt.Sprintf("BinPolicy(%d)", int(p))
	}
}

// ParseBinPolicy accepts sturges, freedman-diaconis (fd) and scott.
func ParseBinPolicy(s string) (BinPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sturges":
		return BinSturges, nil
	case "fd", "freedman-diaconis", "freedman_diaconis", "freedman":
		return BinFreedmanDiaconis, nil
	case "scott":
		return BinScott, nil
	default:
		return BinSturges, fmt.Errorf("unknown bin policy %q (use sturges|fd|scott)", s)
	}
}

// DefaultSturgesCap bounds the Sturges bin count.
const DefaultSturgesCap = 20

// BinCount returns the number of bins policy picks for n samples.
// sturgesCap applies to Sturges only; values <= 0 use DefaultSturgesCap.
func BinCount(n int, policy BinPolicy, sturgesCap int) int {
	if n <= 0 {
		return 0
	}
	if sturgesCap <= 0 {
		sturgesCap = DefaultSturgesCap
	}
	fn := float64(n)
	var k int
	switch policy {
	case BinFreedmanDiaconis:
		k = clampInt(int(math.Ceil(math.Cbrt(fn)*2)), 5, 50)
	case BinScott:
		k = clampInt(int(math.Ceil(math.Cbrt(fn)*3.5)), 5, 40)
	default:
		k = clampInt(int(math.Ceil(math.Log2(fn)+1)), 5, sturgesCap)
	}
	return k
}

func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Bin is one equal-width interval of a histogram, carrying both the original
// and the independently binned scaled distribution.
type Bin struct {
	Range       string
	ScaledRange string
	Count       int
	ScaledCount int
	// Percentage of the valid sample falling in this bin (original axis).
	Percentage  float64
	Start       float64
	End         float64
	ScaledStart float64
	ScaledEnd   float64
}

// HistogramOptions configures BuildHistogram.
type HistogramOptions struct {
	Policy     BinPolicy
	Scale      ScaleMethod
	SturgesCap int
}

// BuildHistogram bins the valid entries of values. Scaled values are binned
// against their own range so the two shapes can be compared side by side.
// An empty sample yields nil.
func BuildHistogram(values []float64, opt HistogramOptions) []Bin {
	valid := ValidValues(values)
	n := len(valid)
	if n == 0 {
		return nil
	}
	k := BinCount(n, opt.Policy, opt.SturgesCap)

	orig := equalWidth(valid, k)
	scaled := orig
	if opt.Scale != ScaleNone {
		scaled = equalWidth(Scale(valid, opt.Scale), k)
	}

	bins := make([]Bin, k)
	for i := range bins {
		bins[i] = Bin{
			Range:       rangeLabel(orig.edges[i], orig.edges[i+1]),
			ScaledRange: rangeLabel(scaled.edges[i], scaled.edges[i+1]),
			Count:       orig.counts[i],
			ScaledCount: scaled.counts[i],
			Percentage:  float64(orig.counts[i]) / float64(n) * 100,
			Start:       orig.edges[i],
			End:         orig.edges[i+1],
			ScaledStart: scaled.edges[i],
			ScaledEnd:   scaled.edges[i+1],
		}
	}
	return bins
}

type binning struct {
	edges  []float64 // k+1 boundaries
	counts []int
}

func equalWidth(vals []float64, k int) binning {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(k)
	b := binning{edges: make([]float64, k+1), counts: make([]int, k)}
	for i := 0; i <= k; i++ {
		b.edges[i] = lo + float64(i)*width
	}
	b.edges[k] = hi
	for _, v := range vals {
		idx := 0
		if width > 0 {
			idx = int(math.Floor((v - lo) / width))
		}
		// v == hi lands one past the last bin
		if idx > k-1 {
			idx = k - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.counts[idx]++
	}
	return b
}

func rangeLabel(start, end float64) string {
	return fmt.Sprintf("%.2f - %.2f", start, end)
}

// CumulativePercentages returns the running sum of bin percentages in order.
func CumulativePercentages(bins []Bin) []float64 {
	out := make([]float64, len(bins))
	var run float64
	for i, b := range bins {
		run += b.Percentage
		out[i] = run
	}
	return out
}
