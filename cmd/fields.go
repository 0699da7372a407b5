package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/decyjphr/github-repository-analysis/internal/records"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List numeric fields and their accepted names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, f := range records.NumericFields() {
			fmt.Fprintf(out, "- %s", f.Header())
			if a := f.Aliases(); len(a) > 0 {
				fmt.Fprintf(out, " (%s)", strings.Join(a, ", "))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
