package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/decyjphr/github-repository-analysis/internal/analysis"
	"github.com/decyjphr/github-repository-analysis/internal/shell"
	"github.com/decyjphr/github-repository-analysis/internal/utils"
)

var (
	sumFields []string
	sumOutput string
	sumJSON   bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <csv>",
	Short: "Descriptive statistics per numeric field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(sumFields)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		s := newSession(currentConfig())
		defer s.Close()
		resp, err := s.run(cmd.Context(), "statistics", shell.NewDescribe(ds.Records, fields...))
		if err != nil {
			return err
		}
		summaries := resp.Fields

		var out []byte
		if sumJSON {
			type row struct {
				Field string `json:"field"`
				analysis.Summary
				Outliers int     `json:"outliers"`
				MaxAbsZ  float64 `json:"outliers_max_abs_z"`
			}
			rows := make([]row, 0, len(summaries))
			for _, fs := range summaries {
				rows = append(rows, row{Field: fs.Field.String(), Summary: fs.Summary, Outliers: fs.Outliers, MaxAbsZ: fs.OutliersMaxAbsZ})
			}
			if out, err = utils.PrettyJSON(rows); err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			header := fmt.Sprintf("%s: %d repositories", ds.Name, ds.Len())
			if ds.Skipped > 0 {
				header += fmt.Sprintf(" (%d malformed rows skipped)", ds.Skipped)
			}
			out = []byte(header + "\n\n" + analysis.SummaryTable(summaries))
		}

		if sumOutput != "" {
			if err := utils.SafeWriteFile(sumOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringSliceVarP(&sumFields, "field", "f", nil, "fields to summarise (repeatable; default all numeric fields)")
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "optional path to write the summary")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "emit JSON instead of a Markdown table")
}
