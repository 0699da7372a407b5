package reduction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyPlan(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		n    int
		want Plan
	}{
		{12000, Plan{Strategy: StrategyLTTB, Target: 1500}},
		{10001, Plan{Strategy: StrategyLTTB, Target: 1500}},
		{10000, Plan{Strategy: StrategyLTTB, Target: 2000}},
		{5001, Plan{Strategy: StrategyLTTB, Target: 2000}},
		{5000, Plan{Strategy: StrategySystematic, Target: 2000, Dedup: true}},
		{2001, Plan{Strategy: StrategySystematic, Target: 2000, Dedup: true}},
		{2000, Plan{Strategy: StrategyNone, Target: 2000}},
		{0, Plan{Strategy: StrategyNone, Target: 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Plan(tt.n), "n=%d", tt.n)
	}
}

func TestPolicyApplyTwelveThousand(t *testing.T) {
	in := series(12000)
	res := DefaultPolicy().Apply(in)
	require.Len(t, res.Points, 1500)
	assert.Equal(t, StrategyLTTB, res.Plan.Strategy)
	assert.Equal(t, 12000, res.Input)
	assert.Equal(t, 1500, res.Output)
	assert.Equal(t, in[0], res.Points[0])
	assert.Equal(t, in[11999], res.Points[1499])
}

func TestPolicyApplyDedupThenSystematic(t *testing.T) {
	// 4000 points, every x duplicated once: dedup halves, then systematic trims
	in := make([]Point, 4000)
	for i := range in {
		in[i] = Point{X: float64(i / 2 * 3), Index: i}
	}
	res := DefaultPolicy().Apply(in)
	assert.True(t, res.Plan.Dedup)
	assert.Equal(t, "dedup+systematic(2000)", res.Plan.String())
	require.Len(t, res.Points, 2000)
	for _, pt := range res.Points {
		assert.Zero(t, pt.Index%2, "second copy of each x must be dropped")
	}
}

func TestPolicyApplyPassthrough(t *testing.T) {
	in := series(50)
	res := DefaultPolicy().Apply(in)
	assert.Equal(t, in, res.Points)
	assert.Equal(t, "passthrough", res.Plan.String())
}

func TestPolicyApplyPlan(t *testing.T) {
	p := DefaultPolicy()
	p.Seed = 9
	in := series(1000)
	res := p.ApplyPlan(in, Plan{Strategy: StrategyStratified, Target: 100})
	require.Len(t, res.Points, 100)
	assert.Equal(t, "stratified(100)", res.Plan.String())
	assert.Equal(t, res, p.ApplyPlan(in, Plan{Strategy: StrategyStratified, Target: 100}))
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.MidTarget = 2
	p.DedupTarget = 0
	p.Tolerance = -1
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lttb targets")
	assert.Contains(t, err.Error(), "dedup target")
	assert.Contains(t, err.Error(), "tolerance")
}
