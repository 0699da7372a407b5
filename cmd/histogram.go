package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/decyjphr/github-repository-analysis/internal/analysis"
	"github.com/decyjphr/github-repository-analysis/internal/records"
	"github.com/decyjphr/github-repository-analysis/internal/shell"
	"github.com/decyjphr/github-repository-analysis/internal/utils"
)

var (
	histField    string
	histBins     string
	histScale    string
	histWidth    int
	histMarkdown bool
	histHTML     string
)

var histogramCmd = &cobra.Command{
	Use:   "histogram <csv>",
	Short: "Bin one numeric field and show its distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		field, err := records.ParseField(histField)
		if err != nil {
			return err
		}
		opt, err := histogramOptions(c, histBins, histScale)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		s := newSession(c)
		defer s.Close()
		values := records.Values(ds.Records, field)
		resp, err := s.run(cmd.Context(), "histogram:"+field.String(), shell.NewHistogram(values, opt))
		if err != nil {
			return err
		}
		bins := resp.Bins
		st, err := s.run(cmd.Context(), "statistics:"+field.String(), shell.NewStatistics(values))
		if err != nil {
			return err
		}
		sum := st.Summary

		if histHTML != "" {
			d := &analysis.Dashboard{Name: ds.Name, Rows: ds.Rows, Skipped: ds.Skipped, Records: ds.Len()}
			d.Histograms = []analysis.HistogramView{{Field: field, Policy: opt.Policy, Scale: opt.Scale, Bins: bins}}
			if err := utils.SafeWriteFile(histHTML, d.HTML()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote histogram to %s\n", histHTML)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d bins (%s) over %d values (mean %.4g, median %.4g)\n\n", field, len(bins), opt.Policy, sum.Count, sum.Mean, sum.P50)
		if histMarkdown {
			if len(bins) == 0 {
				fmt.Fprintln(out, "(no data)")
				return nil
			}
			_, err := fmt.Fprint(out, analysis.HistogramTable(bins, opt.Scale != analysis.ScaleNone))
			return err
		}
		if err := analysis.RenderBars(out, bins, analysis.BarOptions{Width: histWidth, Color: !noColor}); err != nil {
			return err
		}
		if opt.Scale != analysis.ScaleNone && len(bins) > 0 {
			fmt.Fprintf(out, "\nscaled (%s):\n", opt.Scale)
			return analysis.RenderBars(out, bins, analysis.BarOptions{Width: histWidth, Color: !noColor, Scaled: true})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(histogramCmd)
	histogramCmd.Flags().StringVarP(&histField, "field", "f", "size", "field to bin")
	histogramCmd.Flags().StringVar(&histBins, "bins", "", "bin-count policy: sturges|fd|scott (default from config)")
	histogramCmd.Flags().StringVar(&histScale, "scale", "", "scaling: none|minmax|zscore|robust (default from config)")
	histogramCmd.Flags().IntVar(&histWidth, "width", 40, "widest bar in terminal cells")
	histogramCmd.Flags().BoolVar(&histMarkdown, "markdown", false, "print a Markdown table instead of bars")
	histogramCmd.Flags().StringVar(&histHTML, "html", "", "also write the histogram as an HTML page")
}
