// Package reduction shrinks scatter point clouds so that large datasets stay
// cheap to draw: proximity deduplication, sampling and LTTB downsampling,
// picked by a point-count threshold policy.
package reduction

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

// Point is one record projected onto two numeric axes.
type Point struct {
	X, Y  float64
	Index int // source record index; identity for subset checks
	Label string
	Group string
}

// Project builds one point per record using the two fields as axes.
func Project(recs []records.Record, x, y records.Field) []Point {
	pts := make([]Point, len(recs))
	for i := range recs {
		r := &recs[i]
		pts[i] = Point{
			X:     x.Value(r),
			Y:     y.Value(r),
			Index: i,
			Label: r.Label(),
			Group: r.OrgName,
		}
	}
	return pts
}

// SortByX returns a copy of points stably ordered by X, with NaN X last.
// LTTB and systematic sampling walk their input in order, so a cloud
// projected in record order is sorted first to downsample along the x axis.
func SortByX(points []Point) []Point {
	out := clonePoints(points)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].X, out[j].X
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a < b
	})
	return out
}

// Strategy names a reduction algorithm.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyDedup
	StrategySystematic
	StrategyRandom
	StrategyStratified
	StrategyLTTB
)

var strategyNames = map[Strategy]string{
	StrategyNone:       "none",
	StrategyDedup:      "dedup",
	StrategySystematic: "systematic",
	StrategyRandom:     "random",
	StrategyStratified: "stratified",
	StrategyLTTB:       "lttb",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return StrategyNone, nil
	}
	for st, name := range strategyNames {
		if name == key {
			return st, nil
		}
	}
	return StrategyNone, fmt.Errorf("unknown reduction strategy %q", s)
}

// Options tunes Reduce. A zero Seed is a valid seed; runs with the same seed
// produce the same sample.
type Options struct {
	Tolerance float64
	Seed      uint64
}

// DefaultTolerance is the dedup distance used when none is configured.
const DefaultTolerance = 1.0

func (o Options) rng() *rand.Rand {
	return rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
}

// Reduce applies strategy to points. Inputs already at or below target are
// returned as a copy, except for dedup which ignores target. The input slice
// is never modified.
func Reduce(points []Point, target int, strategy Strategy, opt Options) []Point {
	switch strategy {
	case StrategyDedup:
		return Deduplicate(points, opt.Tolerance)
	case StrategySystematic:
		return Systematic(points, target)
	case StrategyRandom:
		return Random(points, target, opt.rng())
	case StrategyStratified:
		return Stratified(points, target, opt.rng())
	case StrategyLTTB:
		return LTTB(points, target)
	default:
		return clonePoints(points)
	}
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	return append([]Point(nil), points...)
}

// Systematic keeps every floor(n/target)-th point in original order until
// target points are collected.
func Systematic(points []Point, target int) []Point {
	n := len(points)
	if target <= 0 {
		return nil
	}
	if n <= target {
		return clonePoints(points)
	}
	step := n / target
	if step < 1 {
		step = 1
	}
	out := make([]Point, 0, target)
	for i := 0; i < n && len(out) < target; i += step {
		out = append(out, points[i])
	}
	return out
}

// Random shuffles a copy of points and keeps the first target.
func Random(points []Point, target int, r *rand.Rand) []Point {
	n := len(points)
	if target <= 0 {
		return nil
	}
	if n <= target {
		return clonePoints(points)
	}
	cp := clonePoints(points)
	r.Shuffle(n, func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp[:target:target]
}

// Stratified splits points into target contiguous chunks of near-equal size
// and keeps one random point from each.
func Stratified(points []Point, target int, r *rand.Rand) []Point {
	n := len(points)
	if target <= 0 {
		return nil
	}
	if n <= target {
		return clonePoints(points)
	}
	out := make([]Point, 0, target)
	for i := 0; i < target; i++ {
		lo := i * n / target
		hi := (i + 1) * n / target
		out = append(out, points[lo+r.IntN(hi-lo)])
	}
	return out
}
