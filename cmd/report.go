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
	repOutput    string
	repHTML      string
	repFields    []string
	repHistOf    []string
	repBins      string
	repScale     string
	repKey       string
	repScatterX  string
	repScatterY  string
	repNoScatter bool
)

var reportCmd = &cobra.Command{
	Use:   "report <csv>",
	Short: "Build the full statistics dashboard as Markdown and/or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		fields, err := parseFields(repFields)
		if err != nil {
			return err
		}
		histOf, err := parseFields(repHistOf)
		if err != nil {
			return err
		}
		key, err := records.ParseField(repKey)
		if err != nil {
			return err
		}
		hopt, err := histogramOptions(c, repBins, repScale)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		s := newSession(c)
		defer s.Close()
		d, err := analysis.BuildDashboard(ds, analysis.DashboardOptions{
			Fields:        fields,
			HistogramOf:   histOf,
			Histogram:     hopt,
			PercentileKey: key,
			Percentiles:   c.Percentiles,
			Neighbors:     c.NeighborhoodSize,
		}, views{ctx: cmd.Context(), s: s, recs: ds.Records})
		if err != nil {
			return err
		}

		if !repNoScatter {
			axes, err := parseFields([]string{repScatterX, repScatterY})
			if err != nil {
				return err
			}
			pts := scatterPoints(ds.Records, axes[0], axes[1])
			resp, err := s.run(cmd.Context(), "scatter", shell.NewReduce(pts, reductionPolicy(c)))
			if err != nil {
				return err
			}
			d.Scatter = &analysis.ScatterView{
				X:           axes[0],
				Y:           axes[1],
				Correlation: analysis.Correlation(ds.Records, axes[0], axes[1]),
				Plan:        resp.Reduction.Plan.String(),
				Input:       resp.Reduction.Input,
				Output:      resp.Reduction.Output,
			}
		}

		md := d.Markdown()
		written := false
		if repOutput != "" {
			if err := utils.SafeWriteFile(repOutput, []byte(md)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", repOutput)
			written = true
		}
		if repHTML != "" {
			if err := utils.SafeWriteFile(repHTML, d.HTML()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote HTML report to %s\n", repHTML)
			written = true
		}
		if !written {
			fmt.Fprint(cmd.OutOrStdout(), md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "path to write the Markdown report")
	reportCmd.Flags().StringVar(&repHTML, "html", "", "path to write the HTML report")
	reportCmd.Flags().StringSliceVarP(&repFields, "field", "f", nil, "fields in the statistics table (default all numeric fields)")
	reportCmd.Flags().StringSliceVar(&repHistOf, "hist", []string{"size"}, "fields to draw histograms for")
	reportCmd.Flags().StringVar(&repBins, "bins", "", "bin-count policy: sturges|fd|scott (default from config)")
	reportCmd.Flags().StringVar(&repScale, "scale", "", "scaling: none|minmax|zscore|robust (default from config)")
	reportCmd.Flags().StringVarP(&repKey, "key", "k", "size", "percentile sort key")
	reportCmd.Flags().StringVar(&repScatterX, "scatter-x", "size", "scatter x axis")
	reportCmd.Flags().StringVar(&repScatterY, "scatter-y", "issues", "scatter y axis")
	reportCmd.Flags().BoolVar(&repNoScatter, "no-scatter", false, "omit the scatter section")
}
