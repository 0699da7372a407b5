package reduction

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

func series(n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: float64(i), Y: math.Sin(float64(i) / 40), Index: i}
	}
	return pts
}

func cloud(n int, spread float64, seed uint64) []Point {
	r := rand.New(rand.NewPCG(seed, seed+1))
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: r.Float64() * spread, Y: r.Float64() * spread, Index: i}
	}
	return pts
}

func indices(pts []Point) []int {
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.Index
	}
	return out
}

func TestLTTBExactTargetKeepsEnds(t *testing.T) {
	for _, tc := range []struct{ n, target int }{
		{12000, 1500}, {100, 3}, {101, 50}, {10, 9}, {5000, 2000},
	} {
		in := series(tc.n)
		out := LTTB(in, tc.target)
		require.Len(t, out, tc.target)
		assert.Equal(t, in[0], out[0])
		assert.Equal(t, in[tc.n-1], out[len(out)-1])
		for i := 1; i < len(out); i++ {
			require.Less(t, out[i-1].Index, out[i].Index, "output must follow input order")
		}
	}
}

func TestLTTBPicksPeak(t *testing.T) {
	// one spike in a flat line must survive
	in := make([]Point, 9)
	for i := range in {
		in[i] = Point{X: float64(i), Index: i}
	}
	in[4].Y = 100
	out := LTTB(in, 3)
	require.Len(t, out, 3)
	assert.Equal(t, 4, out[1].Index)
}

func TestLTTBSmallTargets(t *testing.T) {
	in := series(10)
	assert.Equal(t, in, LTTB(in, 10))
	assert.Equal(t, in, LTTB(in, 50))
	assert.Equal(t, []Point{in[0], in[9]}, LTTB(in, 2))
	assert.Len(t, LTTB(in, 1), 1)
	assert.Nil(t, LTTB(nil, 5))
}

func TestDeduplicateMinDistanceAndSubset(t *testing.T) {
	in := cloud(3000, 50, 7)
	for _, tol := range []float64{0.5, 1, 2} {
		out := Deduplicate(in, tol)
		require.NotEmpty(t, out)
		require.Less(t, len(out), len(in))

		seen := map[int]bool{}
		for _, p := range in {
			seen[p.Index] = true
		}
		for i := range out {
			require.True(t, seen[out[i].Index], "output must be a subset of input")
			for j := i + 1; j < len(out); j++ {
				d := math.Hypot(out[i].X-out[j].X, out[i].Y-out[j].Y)
				require.GreaterOrEqual(t, d, tol)
			}
		}
	}
}

// pairwise is the direct quadratic scan the grid index must agree with.
func pairwise(points []Point, tol float64) []Point {
	var kept []Point
	for _, p := range points {
		ok := true
		for _, k := range kept {
			if math.Hypot(k.X-p.X, k.Y-p.Y) < tol {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, p)
		}
	}
	return kept
}

func TestDeduplicateMatchesPairwiseScan(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		in := cloud(1500, 30, seed)
		// negative coordinates exercise floor on the grid
		for i := range in {
			if i%3 == 0 {
				in[i].X = -in[i].X
			}
		}
		assert.Equal(t, indices(pairwise(in, 1.5)), indices(Deduplicate(in, 1.5)))
	}
}

func TestDeduplicateEdgeCases(t *testing.T) {
	in := []Point{{X: 0, Index: 0}, {X: 0, Index: 1}, {X: math.NaN(), Index: 2}, {X: 1, Index: 3}}
	assert.Equal(t, []int{0, 2, 3}, indices(Deduplicate(in, 1)), "distance exactly tolerance is kept")
	assert.Len(t, Deduplicate(in, 0), 4)
	assert.Empty(t, Deduplicate(nil, 1))
}

func TestSystematic(t *testing.T) {
	in := series(10)
	assert.Equal(t, []int{0, 3, 6}, indices(Systematic(in, 3)))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, indices(Systematic(in, 7)))
	assert.Len(t, Systematic(in, 20), 10)
	assert.Nil(t, Systematic(in, 0))
}

func TestRandomIsSeededSubset(t *testing.T) {
	in := series(500)
	a := Reduce(in, 50, StrategyRandom, Options{Seed: 42})
	b := Reduce(in, 50, StrategyRandom, Options{Seed: 42})
	c := Reduce(in, 50, StrategyRandom, Options{Seed: 43})
	require.Len(t, a, 50)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[int]bool{}
	for _, p := range a {
		require.False(t, seen[p.Index], "no point may repeat")
		seen[p.Index] = true
	}
	assert.Equal(t, series(500), in, "input must not be shuffled in place")
}

func TestStratifiedOnePerChunk(t *testing.T) {
	in := series(100)
	out := Reduce(in, 10, StrategyStratified, Options{Seed: 1})
	require.Len(t, out, 10)
	for i, p := range out {
		assert.GreaterOrEqual(t, p.Index, i*10)
		assert.Less(t, p.Index, (i+1)*10)
	}
}

func TestReduceNoneCopies(t *testing.T) {
	in := series(5)
	out := Reduce(in, 2, StrategyNone, Options{})
	require.Equal(t, in, out)
	out[0].X = 99
	assert.Equal(t, 0.0, in[0].X)
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{StrategyNone, StrategyDedup, StrategySystematic, StrategyRandom, StrategyStratified, StrategyLTTB} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStrategy("kmeans")
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	recs := []records.Record{
		{OrgName: "acme", RepoName: "api", RepoSizeMB: 12, IssueCount: 3},
		{OrgName: "acme", RepoName: "web", RepoSizeMB: 4, IssueCount: 9},
	}
	pts := Project(recs, records.FieldSize, records.FieldIssues)
	require.Len(t, pts, 2)
	assert.Equal(t, Point{X: 4, Y: 9, Index: 1, Label: "acme/web", Group: "acme"}, pts[1])
}

func TestSortByXIsStableAndKeepsInput(t *testing.T) {
	in := []Point{
		{X: 5, Index: 0},
		{X: math.NaN(), Index: 1},
		{X: 1, Index: 2},
		{X: 5, Index: 3},
		{X: -2, Index: 4},
	}
	out := SortByX(in)
	idx := make([]int, len(out))
	for i, p := range out {
		idx[i] = p.Index
	}
	assert.Equal(t, []int{4, 2, 0, 3, 1}, idx)
	assert.Equal(t, 0, in[0].Index, "input order untouched")
}
