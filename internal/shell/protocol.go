// Package shell runs the analysis and reduction engines off the caller's path.
// Work is described by a tagged Request, executed inline or on background
// workers through the same Dispatch, and tracked per panel so that a newer
// request always wins over a late result from an older one.
package shell

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/decyjphr/github-repository-analysis/internal/analysis"
	"github.com/decyjphr/github-repository-analysis/internal/records"
	"github.com/decyjphr/github-repository-analysis/internal/reduction"
)

var (
	ErrTimeout   = errors.New("background execution timed out")
	ErrNoRequest = errors.New("no request to process")
	ErrClosed    = errors.New("executor closed")
	ErrUnknownOp = errors.New("unknown operation")
)

// DispatchError wraps a panic or payload error raised while running an op.
type DispatchError struct {
	Op  OpKind
	Err error
}

func (e *DispatchError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *DispatchError) Unwrap() error { return e.Err }

// OpKind enumerates the operations the shell can run.
type OpKind int

const (
	OpStatistics OpKind = iota + 1
	OpHistogram
	OpPercentiles
	OpReduce
	OpDedup
	OpDescribe
)

func (k OpKind) String() string {
	switch k {
	case OpStatistics:
		return "statistics"
	case OpHistogram:
		return "histogram"
	case OpPercentiles:
		return "percentiles"
	case OpReduce:
		return "reduce"
	case OpDedup:
		return "dedup"
	case OpDescribe:
		return "describe"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

type StatisticsPayload struct {
	Values []float64
}

// DescribePayload summarises several fields of one record set, with robust
// outlier counts. No fields means every numeric field.
type DescribePayload struct {
	Records []records.Record
	Fields  []records.Field
}

type HistogramPayload struct {
	Values  []float64
	Options analysis.HistogramOptions
}

type PercentilesPayload struct {
	Records     []records.Record
	Key         records.Field
	Percentiles []float64
	// Neighbors > 0 also returns that many records around each percentile.
	Neighbors int
}

type ReducePayload struct {
	Points []reduction.Point
	Policy reduction.Policy
	// Plan, when set, replaces the policy's threshold choice.
	Plan *reduction.Plan
}

type DedupPayload struct {
	Points    []reduction.Point
	Tolerance float64
}

// Request is a tagged variant: Op names which single payload is set.
// Build one with the New* constructors.
type Request struct {
	Op          OpKind
	Statistics  *StatisticsPayload
	Histogram   *HistogramPayload
	Percentiles *PercentilesPayload
	Reduce      *ReducePayload
	Dedup       *DedupPayload
	Describe    *DescribePayload
}

func NewStatistics(values []float64) Request {
	return Request{Op: OpStatistics, Statistics: &StatisticsPayload{Values: values}}
}

func NewDescribe(recs []records.Record, fields ...records.Field) Request {
	return Request{Op: OpDescribe, Describe: &DescribePayload{Records: recs, Fields: fields}}
}

func NewHistogram(values []float64, opt analysis.HistogramOptions) Request {
	return Request{Op: OpHistogram, Histogram: &HistogramPayload{Values: values, Options: opt}}
}

func NewPercentiles(recs []records.Record, key records.Field, ps []float64, neighbors int) Request {
	return Request{Op: OpPercentiles, Percentiles: &PercentilesPayload{Records: recs, Key: key, Percentiles: ps, Neighbors: neighbors}}
}

func NewReduce(points []reduction.Point, policy reduction.Policy) Request {
	return Request{Op: OpReduce, Reduce: &ReducePayload{Points: points, Policy: policy}}
}

// NewReducePlan reduces with a fixed plan instead of the policy thresholds.
func NewReducePlan(points []reduction.Point, policy reduction.Policy, plan reduction.Plan) Request {
	return Request{Op: OpReduce, Reduce: &ReducePayload{Points: points, Policy: policy, Plan: &plan}}
}

func NewDedup(points []reduction.Point, tolerance float64) Request {
	return Request{Op: OpDedup, Dedup: &DedupPayload{Points: points, Tolerance: tolerance}}
}

// Size is the input element count, used to choose between inline and
// background execution.
func (r Request) Size() int {
	switch {
	case r.Statistics != nil:
		return len(r.Statistics.Values)
	case r.Histogram != nil:
		return len(r.Histogram.Values)
	case r.Percentiles != nil:
		return len(r.Percentiles.Records)
	case r.Reduce != nil:
		return len(r.Reduce.Points)
	case r.Dedup != nil:
		return len(r.Dedup.Points)
	case r.Describe != nil:
		return len(r.Describe.Records)
	}
	return 0
}

func (r Request) validate() error {
	set := 0
	for _, ok := range []bool{r.Statistics != nil, r.Histogram != nil, r.Percentiles != nil, r.Reduce != nil, r.Dedup != nil, r.Describe != nil} {
		if ok {
			set++
		}
	}
	var match bool
	switch r.Op {
	case OpStatistics:
		match = r.Statistics != nil
	case OpHistogram:
		match = r.Histogram != nil
	case OpPercentiles:
		match = r.Percentiles != nil
	case OpReduce:
		match = r.Reduce != nil
	case OpDedup:
		match = r.Dedup != nil
	case OpDescribe:
		match = r.Describe != nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOp, r.Op)
	}
	if !match || set != 1 {
		return &DispatchError{Op: r.Op, Err: fmt.Errorf("request must carry exactly its own payload (%d set)", set)}
	}
	return nil
}

// Neighborhood is the window of records around one percentile.
type Neighborhood struct {
	Percentile float64
	Records    []analysis.PercentileRecord
}

// Response carries the typed result for the request's Op.
type Response struct {
	Op            OpKind
	Summary       analysis.Summary
	Fields        []analysis.FieldSummary
	Bins          []analysis.Bin
	Percentiles   []analysis.PercentileRecord
	Neighborhoods []Neighborhood
	Reduction     reduction.Result
}

// Items is the length of the sequence progressive reveal pages through;
// scalar results have none.
func (r *Response) Items() int {
	switch r.Op {
	case OpReduce, OpDedup:
		return len(r.Reduction.Points)
	case OpHistogram:
		return len(r.Bins)
	case OpPercentiles:
		return len(r.Percentiles)
	case OpDescribe:
		return len(r.Fields)
	}
	return 0
}

// Dispatch runs req in the calling goroutine. Every executor ends here, which
// is what keeps inline and background results identical.
func Dispatch(req Request) (resp Response, err error) {
	if err := req.validate(); err != nil {
		return Response{}, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			resp = Response{}
			err = &DispatchError{Op: req.Op, Err: fmt.Errorf("panic: %v\n%s", rec, debug.Stack())}
		}
	}()

	resp.Op = req.Op
	switch req.Op {
	case OpStatistics:
		resp.Summary = analysis.Describe(req.Statistics.Values)
	case OpDescribe:
		resp.Fields = analysis.DescribeAll(req.Describe.Records, req.Describe.Fields...)
	case OpHistogram:
		resp.Bins = analysis.BuildHistogram(req.Histogram.Values, req.Histogram.Options)
	case OpPercentiles:
		p := req.Percentiles
		resp.Percentiles = analysis.SelectPercentiles(p.Records, p.Key, p.Percentiles)
		if p.Neighbors > 0 {
			for _, pct := range p.Percentiles {
				resp.Neighborhoods = append(resp.Neighborhoods, Neighborhood{
					Percentile: pct,
					Records:    analysis.Neighborhood(p.Records, p.Key, pct, p.Neighbors),
				})
			}
		}
	case OpReduce:
		if err := req.Reduce.Policy.Validate(); err != nil {
			return Response{}, &DispatchError{Op: req.Op, Err: err}
		}
		if plan := req.Reduce.Plan; plan != nil {
			resp.Reduction = req.Reduce.Policy.ApplyPlan(req.Reduce.Points, *plan)
		} else {
			resp.Reduction = req.Reduce.Policy.Apply(req.Reduce.Points)
		}
	case OpDedup:
		in := req.Dedup.Points
		out := reduction.Deduplicate(in, req.Dedup.Tolerance)
		resp.Reduction = reduction.Result{
			Points: out,
			Plan:   reduction.Plan{Strategy: reduction.StrategyDedup, Target: len(out)},
			Input:  len(in),
			Output: len(out),
		}
	}
	return resp, nil
}
