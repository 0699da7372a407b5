package analysis

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

// shuffledRepos returns n records with sizes 1..n in random order.
func shuffledRepos(n int) []records.Record {
	recs := make([]records.Record, n)
	for i := range recs {
		recs[i] = records.Record{RepoName: fmt.Sprintf("repo-%03d", i+1), RepoSizeMB: float64(i + 1)}
	}
	r := rand.New(rand.NewPCG(1, 2))
	r.Shuffle(n, func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
	return recs
}

func TestSelectPercentilesP10P90(t *testing.T) {
	recs := shuffledRepos(100)
	got := SelectPercentiles(recs, records.FieldSize, []float64{10, 90})
	require.Len(t, got, 2)

	assert.Equal(t, 9, got[0].Rank)
	assert.Equal(t, 10.0, got[0].SortValue)
	assert.Equal(t, "repo-010", got[0].Record.RepoName)
	assert.Equal(t, 10.0, got[0].Percentile)

	assert.Equal(t, 89, got[1].Rank)
	assert.Equal(t, 90.0, got[1].SortValue)
	assert.Equal(t, "repo-090", got[1].Record.RepoName)
}

func TestSelectPercentilesIsAViewNotACopy(t *testing.T) {
	recs := shuffledRepos(20)
	before := append([]records.Record(nil), recs...)

	got := SelectPercentiles(recs, records.FieldSize, []float64{50})
	require.Len(t, got, 1)
	assert.Same(t, &recs[got[0].Index], got[0].Record)
	assert.Equal(t, before, recs, "source order must be untouched")
}

func TestSelectPercentilesEmpty(t *testing.T) {
	assert.Nil(t, SelectPercentiles(nil, records.FieldSize, []float64{10, 90}))
}

func TestNeighborhoodPreservesSortOrder(t *testing.T) {
	recs := shuffledRepos(100)
	got := Neighborhood(recs, records.FieldSize, 90, 10)
	require.Len(t, got, 10)
	assert.Equal(t, 84, got[0].Rank)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].Rank+1, got[i].Rank)
		assert.LessOrEqual(t, got[i-1].SortValue, got[i].SortValue)
	}
}

func TestNeighborhoodClampsAtEdges(t *testing.T) {
	recs := shuffledRepos(30)

	low := Neighborhood(recs, records.FieldSize, 1, 10)
	require.Len(t, low, 10)
	assert.Equal(t, 0, low[0].Rank)

	high := Neighborhood(recs, records.FieldSize, 100, 10)
	require.Len(t, high, 10)
	assert.Equal(t, 29, high[9].Rank)

	all := Neighborhood(recs, records.FieldSize, 50, 100)
	assert.Len(t, all, 30)
	assert.Nil(t, Neighborhood(recs, records.FieldSize, 50, 0))
}

func TestNeighborhoodStableOnTies(t *testing.T) {
	recs := []records.Record{{RepoName: "a", RepoSizeMB: 1}, {RepoName: "b", RepoSizeMB: 1}, {RepoName: "c", RepoSizeMB: 1}}
	got := Neighborhood(recs, records.FieldSize, 50, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{got[0].Index, got[1].Index, got[2].Index})
}

func TestExtremes(t *testing.T) {
	recs := shuffledRepos(50)
	bottom, top := Extremes(recs, records.FieldSize, 3)
	require.Len(t, bottom, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{bottom[0].SortValue, bottom[1].SortValue, bottom[2].SortValue})
	assert.Equal(t, []float64{48, 49, 50}, []float64{top[0].SortValue, top[1].SortValue, top[2].SortValue})
	assert.Equal(t, 100.0, top[2].Percentile)
}
