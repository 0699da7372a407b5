package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/decyjphr/github-repository-analysis/internal/analysis"
	"github.com/decyjphr/github-repository-analysis/internal/records"
	"github.com/decyjphr/github-repository-analysis/internal/shell"
)

var (
	pctValues    []float64
	pctKey       string
	pctNeighbors int
	pctExtremes  int
)

var percentilesCmd = &cobra.Command{
	Use:   "percentiles <csv>",
	Short: "Show the repositories at selected percentile ranks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		key, err := records.ParseField(pctKey)
		if err != nil {
			return err
		}
		ps := pctValues
		if !cmd.Flags().Changed("p") {
			ps = c.Percentiles
		}
		for _, p := range ps {
			if p < 0 || p > 100 {
				return fmt.Errorf("percentile out of range [0,100]: %v", p)
			}
		}
		neighbors := pctNeighbors
		if !cmd.Flags().Changed("neighbors") {
			neighbors = c.NeighborhoodSize
		}
		ds, err := loadDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		s := newSession(c)
		defer s.Close()
		resp, err := s.run(cmd.Context(), "percentiles:"+key.String(), shell.NewPercentiles(ds.Records, key, ps, neighbors))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(resp.Percentiles) == 0 {
			fmt.Fprintln(out, "(no data)")
			return nil
		}
		fmt.Fprintf(out, "Percentiles by %s (%d repositories)\n\n", key, ds.Len())
		fmt.Fprint(out, analysis.PercentileTable(resp.Percentiles))
		for _, nb := range resp.Neighborhoods {
			fmt.Fprintf(out, "\nAround P%g:\n\n", nb.Percentile)
			fmt.Fprint(out, analysis.PercentileTable(nb.Records))
		}
		if pctExtremes > 0 {
			bottom, top := analysis.Extremes(ds.Records, key, pctExtremes)
			fmt.Fprintf(out, "\nSmallest %d:\n\n%s", len(bottom), analysis.PercentileTable(bottom))
			fmt.Fprintf(out, "\nLargest %d:\n\n%s", len(top), analysis.PercentileTable(top))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(percentilesCmd)
	percentilesCmd.Flags().Float64SliceVar(&pctValues, "p", nil, "percentiles to select, e.g. 10,90 (default from config)")
	percentilesCmd.Flags().StringVarP(&pctKey, "key", "k", "size", "field to sort by")
	percentilesCmd.Flags().IntVar(&pctNeighbors, "neighbors", 0, "records to list around each percentile (default from config)")
	percentilesCmd.Flags().IntVar(&pctExtremes, "extremes", 0, "also list the n smallest and largest repositories")
}
