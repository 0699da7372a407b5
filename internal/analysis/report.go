package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gonum.org/v1/gonum/stat"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

// Dashboard collects every view of one dataset for rendering.
type Dashboard struct {
	Name    string
	Rows    int
	Skipped int
	Records int

	Fields      []FieldSummary
	Histograms  []HistogramView
	Percentiles *PercentileView
	Scatter     *ScatterView
	Notes       []string
}

// HistogramView is a histogram plus the settings that produced it.
type HistogramView struct {
	Field  records.Field
	Policy BinPolicy
	Scale  ScaleMethod
	Bins   []Bin
}

// PercentileView lists the selected percentile records for one sort key.
type PercentileView struct {
	Key     records.Field
	Entries []PercentileRecord
	// Neighborhoods[i] surrounds Entries[i]; may be empty.
	Neighborhoods [][]PercentileRecord
}

// ScatterView summarises a reduced scatter projection.
type ScatterView struct {
	X, Y        records.Field
	Correlation float64
	Plan        string
	Input       int
	Output      int
}

// DashboardOptions selects what BuildDashboard computes.
type DashboardOptions struct {
	Fields        []records.Field // empty: all numeric fields
	HistogramOf   []records.Field
	Histogram     HistogramOptions
	PercentileKey records.Field
	Percentiles   []float64
	Neighbors     int
}

// ViewSource computes the views a Dashboard is assembled from, for the
// dataset it was created over.
type ViewSource interface {
	Describe(fields []records.Field) ([]FieldSummary, error)
	Histogram(f records.Field, opt HistogramOptions) ([]Bin, error)
	// Percentiles returns the selected entries and, when neighbors > 0, one
	// neighbourhood per requested percentile.
	Percentiles(key records.Field, ps []float64, neighbors int) ([]PercentileRecord, [][]PercentileRecord, error)
}

// BuildDashboard assembles the statistics, histogram and percentile views of
// ds from src. The scatter view is left to the caller, which owns reduction.
func BuildDashboard(ds *records.Dataset, opt DashboardOptions, src ViewSource) (*Dashboard, error) {
	d := &Dashboard{Name: ds.Name, Rows: ds.Rows, Skipped: ds.Skipped, Records: ds.Len()}
	fields := opt.Fields
	if len(fields) == 0 {
		fields = records.NumericFields()
	}
	var err error
	if d.Fields, err = src.Describe(fields); err != nil {
		return nil, fmt.Errorf("field statistics: %w", err)
	}

	for _, f := range opt.HistogramOf {
		bins, err := src.Histogram(f, opt.Histogram)
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", f, err)
		}
		d.Histograms = append(d.Histograms, HistogramView{
			Field:  f,
			Policy: opt.Histogram.Policy,
			Scale:  opt.Histogram.Scale,
			Bins:   bins,
		})
	}

	if len(opt.Percentiles) > 0 && ds.Len() > 0 {
		entries, around, err := src.Percentiles(opt.PercentileKey, opt.Percentiles, opt.Neighbors)
		if err != nil {
			return nil, fmt.Errorf("percentiles by %s: %w", opt.PercentileKey, err)
		}
		d.Percentiles = &PercentileView{Key: opt.PercentileKey, Entries: entries, Neighborhoods: around}
	}

	if ds.Skipped > 0 {
		d.Notes = append(d.Notes, fmt.Sprintf("%d malformed rows skipped", ds.Skipped))
	}
	if ds.Truncated {
		d.Notes = append(d.Notes, fmt.Sprintf("row limit reached after %d rows", ds.Rows))
	}
	if ds.Len() == 0 {
		d.Notes = append(d.Notes, "no records loaded")
	}
	return d, nil
}

// Correlation returns Pearson's r between two fields over records where both
// values are valid, or NaN when fewer than two such records exist.
func Correlation(recs []records.Record, x, y records.Field) float64 {
	xs := make([]float64, 0, len(recs))
	ys := make([]float64, 0, len(recs))
	for i := range recs {
		a, b := x.Value(&recs[i]), y.Value(&recs[i])
		if validValue(a) && validValue(b) {
			xs = append(xs, a)
			ys = append(ys, b)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// Markdown renders the dashboard as a standalone document.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	b.WriteString("# Repository statistics\n\n")
	b.WriteString("## Dataset summary\n\n")
	if d.Name != "" {
		b.WriteString(fmt.Sprintf("- File: %s\n", d.Name))
	}
	if d.Skipped > 0 {
		b.WriteString(fmt.Sprintf("- Rows: %d (%d skipped)\n", d.Rows, d.Skipped))
	} else {
		b.WriteString(fmt.Sprintf("- Rows: %d\n", d.Rows))
	}
	b.WriteString(fmt.Sprintf("- Repositories: %d\n", d.Records))

	if len(d.Fields) > 0 {
		b.WriteString("\n## Field statistics\n\n")
		b.WriteString(SummaryTable(d.Fields))
	}

	for _, h := range d.Histograms {
		b.WriteString(fmt.Sprintf("\n## Histogram: %s\n\n", h.Field))
		b.WriteString(fmt.Sprintf("Bins: %d (%s", len(h.Bins), h.Policy))
		if h.Scale != ScaleNone {
			b.WriteString(fmt.Sprintf(", scaled %s", h.Scale))
		}
		b.WriteString(")\n\n")
		if len(h.Bins) == 0 {
			b.WriteString("_No data._\n")
			continue
		}
		b.WriteString(HistogramTable(h.Bins, h.Scale != ScaleNone))
	}

	if pv := d.Percentiles; pv != nil {
		b.WriteString(fmt.Sprintf("\n## Percentiles by %s\n\n", pv.Key))
		b.WriteString(PercentileTable(pv.Entries))
		for i, nb := range pv.Neighborhoods {
			if len(nb) == 0 || i >= len(pv.Entries) {
				continue
			}
			b.WriteString(fmt.Sprintf("\n### Around P%s\n\n", formatPercent(pv.Entries[i].Percentile)))
			b.WriteString(PercentileTable(nb))
		}
	}

	if s := d.Scatter; s != nil {
		b.WriteString(fmt.Sprintf("\n## Scatter: %s vs %s\n\n", s.X, s.Y))
		if math.IsNaN(s.Correlation) {
			b.WriteString("- Correlation: n/a\n")
		} else {
			b.WriteString(fmt.Sprintf("- Correlation: r=%.3f\n", s.Correlation))
		}
		b.WriteString(fmt.Sprintf("- Points: %d of %d (%s)\n", s.Output, s.Input, s.Plan))
	}

	if len(d.Notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, n := range d.Notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// HTML renders the Markdown output as a complete HTML page.
func (d *Dashboard) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(d.Markdown()))
	title := "Repository statistics"
	if d.Name != "" {
		title += " - " + d.Name
	}
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.Render(doc, renderer)
}

// SummaryTable renders one row per field summary.
func SummaryTable(fs []FieldSummary) string {
	var b strings.Builder
	b.WriteString("| Field | Count | Mean | Std | Min | P25 | P50 | P75 | Max | Outliers |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	for _, f := range fs {
		out := "-"
		if f.Outliers > 0 {
			out = fmt.Sprintf("%d (max z≈%.2f)", f.Outliers, f.OutliersMaxAbsZ)
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g | %s |\n",
			f.Field, f.Count, f.Mean, f.Std, f.Min, f.P25, f.P50, f.P75, f.Max, out))
	}
	return b.String()
}

// HistogramTable renders bins with cumulative percentages. withScaled adds
// the independently binned scaled columns.
func HistogramTable(bins []Bin, withScaled bool) string {
	var b strings.Builder
	cum := CumulativePercentages(bins)
	if withScaled {
		b.WriteString("| Range | Count | % | Cum % | Scaled range | Scaled count |\n")
		b.WriteString("| --- | ---: | ---: | ---: | --- | ---: |\n")
	} else {
		b.WriteString("| Range | Count | % | Cum % |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")
	}
	for i, bin := range bins {
		b.WriteString(fmt.Sprintf("| %s | %d | %.1f | %.1f |", bin.Range, bin.Count, bin.Percentage, cum[i]))
		if withScaled {
			b.WriteString(fmt.Sprintf(" %s | %d |", bin.ScaledRange, bin.ScaledCount))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// PercentileTable renders percentile records with their rank and source label.
func PercentileTable(entries []PercentileRecord) string {
	var b strings.Builder
	b.WriteString("| Percentile | Rank | Value | Repository |\n")
	b.WriteString("| ---: | ---: | ---: | --- |\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("| P%s | %d | %.4g | %s |\n",
			formatPercent(e.Percentile), e.Rank, e.SortValue, safeCell(e.Record.Label())))
	}
	return b.String()
}

func formatPercent(p float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", p), "0"), ".")
}

func safeCell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
