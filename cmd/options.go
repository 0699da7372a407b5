package cmd

import (
	"context"
	"fmt"

	"github.com/decyjphr/github-repository-analysis/internal/analysis"
	cfgpkg "github.com/decyjphr/github-repository-analysis/internal/config"
	"github.com/decyjphr/github-repository-analysis/internal/records"
	"github.com/decyjphr/github-repository-analysis/internal/reduction"
	"github.com/decyjphr/github-repository-analysis/internal/shell"
)

// reductionPolicy maps the flat config keys onto the reduction threshold table.
func reductionPolicy(c *cfgpkg.Global) reduction.Policy {
	return reduction.Policy{
		HighThreshold:  c.LTTBHighThreshold,
		HighTarget:     c.LTTBHighTarget,
		MidThreshold:   c.LTTBMidThreshold,
		MidTarget:      c.LTTBMidTarget,
		DedupThreshold: c.DedupThreshold,
		DedupTarget:    c.DedupTarget,
		Tolerance:      c.DedupTolerance,
		Seed:           uint64(c.SampleSeed),
	}
}

func shellOptions(c *cfgpkg.Global) shell.Options {
	return shell.Options{
		SyncThreshold:  c.SyncThreshold,
		Progressive:    c.ProgressiveEnabled,
		InitialBatch:   c.ProgressiveInitialBatch,
		BatchGrowth:    c.ProgressiveGrowth,
		RevealInterval: c.ProgressiveInterval(),
	}
}

// histogramOptions resolves flag overrides on top of config.
func histogramOptions(c *cfgpkg.Global, bins, scale string) (analysis.HistogramOptions, error) {
	if bins == "" {
		bins = c.BinPolicy
	}
	if scale == "" {
		scale = c.ScaleMethod
	}
	policy, err := analysis.ParseBinPolicy(bins)
	if err != nil {
		return analysis.HistogramOptions{}, err
	}
	method, err := analysis.ParseScaleMethod(scale)
	if err != nil {
		return analysis.HistogramOptions{}, err
	}
	return analysis.HistogramOptions{Policy: policy, Scale: method, SturgesCap: c.SturgesCap}, nil
}

func parseFields(names []string) ([]records.Field, error) {
	out := make([]records.Field, 0, len(names))
	for _, n := range names {
		f, err := records.ParseField(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func loadDataset(ctx context.Context, path string) (*records.Dataset, error) {
	ds, err := records.LoadFile(ctx, path, records.CSVLoader{MaxRows: flagMaxRows})
	if err != nil {
		return nil, err
	}
	log.Debugw("dataset loaded", "file", ds.Name, "rows", ds.Rows, "records", ds.Len(),
		"skipped", ds.Skipped, "truncated", ds.Truncated)
	return ds, nil
}

// scatterPoints projects recs onto the two axes in x order.
func scatterPoints(recs []records.Record, x, y records.Field) []reduction.Point {
	return reduction.SortByX(reduction.Project(recs, x, y))
}

// session owns the executors shared by the panels of one command run.
type session struct {
	cfg *cfgpkg.Global
	bg  *shell.Background
}

func newSession(c *cfgpkg.Global) *session {
	s := &session{cfg: c}
	if c.BackgroundEnabled {
		s.bg = shell.NewBackground(c.BackgroundWorkers, c.BackgroundTimeout(), log)
	}
	return s
}

// panel builds a panel whose large requests go to the background pool with
// inline fallback.
func (s *session) panel(name string) *shell.Panel {
	var exec shell.Executor
	if s.bg != nil {
		exec = shell.Fallback{Primary: s.bg, Secondary: shell.Inline{}, Log: log.WithPanel(name)}
	}
	return shell.NewPanel(name, shellOptions(s.cfg), exec, log)
}

func (s *session) Close() {
	if s.bg != nil {
		s.bg.Close()
	}
}

// run submits req on a fresh panel and waits for the terminal state.
func (s *session) run(ctx context.Context, name string, req shell.Request) (*shell.Response, error) {
	p := s.panel(name)
	defer p.Close()
	if _, err := p.Submit(req); err != nil {
		return nil, err
	}
	st, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if st.Err != nil {
		return nil, fmt.Errorf("%s: %w", name, st.Err)
	}
	return st.Result, nil
}

// views computes dashboard views through the session's panels.
type views struct {
	ctx  context.Context
	s    *session
	recs []records.Record
}

func (v views) Describe(fields []records.Field) ([]analysis.FieldSummary, error) {
	resp, err := v.s.run(v.ctx, "statistics", shell.NewDescribe(v.recs, fields...))
	if err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (v views) Histogram(f records.Field, opt analysis.HistogramOptions) ([]analysis.Bin, error) {
	resp, err := v.s.run(v.ctx, "histogram:"+f.String(), shell.NewHistogram(records.Values(v.recs, f), opt))
	if err != nil {
		return nil, err
	}
	return resp.Bins, nil
}

func (v views) Percentiles(key records.Field, ps []float64, neighbors int) ([]analysis.PercentileRecord, [][]analysis.PercentileRecord, error) {
	resp, err := v.s.run(v.ctx, "percentiles:"+key.String(), shell.NewPercentiles(v.recs, key, ps, neighbors))
	if err != nil {
		return nil, nil, err
	}
	var around [][]analysis.PercentileRecord
	for _, nb := range resp.Neighborhoods {
		around = append(around, nb.Records)
	}
	return resp.Percentiles, around, nil
}
