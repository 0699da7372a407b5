package reduction

import (
	"errors"
	"fmt"
)

// Policy is the threshold table that picks a strategy from the point count.
// Thresholds are exclusive: a count must exceed one to trigger it.
type Policy struct {
	HighThreshold  int // above this: LTTB to HighTarget
	HighTarget     int
	MidThreshold   int // above this: LTTB to MidTarget
	MidTarget      int
	DedupThreshold int // above this: dedup, then systematic to DedupTarget
	DedupTarget    int
	Tolerance      float64
	Seed           uint64
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		HighThreshold:  10000,
		HighTarget:     1500,
		MidThreshold:   5000,
		MidTarget:      2000,
		DedupThreshold: 2000,
		DedupTarget:    2000,
		Tolerance:      DefaultTolerance,
	}
}

// Validate reports thresholds Apply cannot honour.
func (p Policy) Validate() error {
	var errs []error
	if p.HighTarget < 3 || p.MidTarget < 3 {
		errs = append(errs, fmt.Errorf("lttb targets must be >= 3 (high=%d mid=%d)", p.HighTarget, p.MidTarget))
	}
	if p.DedupTarget <= 0 {
		errs = append(errs, fmt.Errorf("dedup target must be positive, got %d", p.DedupTarget))
	}
	if p.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must be >= 0, got %g", p.Tolerance))
	}
	return errors.Join(errs...)
}

// Plan describes what Apply will do for a given input size.
type Plan struct {
	Strategy Strategy
	Target   int
	// Dedup runs proximity deduplication before Strategy.
	Dedup bool
}

func (p Plan) String() string {
	switch {
	case p.Dedup && p.Strategy == StrategySystematic:
		return fmt.Sprintf("dedup+systematic(%d)", p.Target)
	case p.Strategy == StrategyNone:
		return "passthrough"
	default:
		return fmt.Sprintf("%s(%d)", p.Strategy, p.Target)
	}
}

// Plan selects the reduction for n points.
func (p Policy) Plan(n int) Plan {
	switch {
	case n > p.HighThreshold:
		return Plan{Strategy: StrategyLTTB, Target: p.HighTarget}
	case n > p.MidThreshold:
		return Plan{Strategy: StrategyLTTB, Target: p.MidTarget}
	case n > p.DedupThreshold:
		return Plan{Strategy: StrategySystematic, Target: p.DedupTarget, Dedup: true}
	default:
		return Plan{Strategy: StrategyNone, Target: n}
	}
}

// Result is the outcome of Policy.Apply.
type Result struct {
	Points []Point
	Plan   Plan
	Input  int
	Output int
}

// Apply reduces points according to Plan(len(points)).
func (p Policy) Apply(points []Point) Result {
	return p.ApplyPlan(points, p.Plan(len(points)))
}

// ApplyPlan runs an explicit plan using the policy's tolerance and seed.
func (p Policy) ApplyPlan(points []Point, plan Plan) Result {
	out := points
	if plan.Dedup {
		out = Deduplicate(out, p.Tolerance)
	}
	out = Reduce(out, plan.Target, plan.Strategy, Options{Tolerance: p.Tolerance, Seed: p.Seed})
	return Result{Points: out, Plan: plan, Input: len(points), Output: len(out)}
}
