package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaTypes      []string
	anaSheets     sheetFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Detect column types, normalize amounts and dates, and report the result",
	Long: `Analyze reads a CSV/TSV/XLSX file, classifies every column as number, date or
text, rewrites number and date columns into canonical values and prints a
report with per-column confidence, parse failures, indexes and sample rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd.Context(), anaTypes)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("sample-rows") {
			sess.opt.SampleRows = anaSampleRows
		}
		reps, err := sess.load(args[0], anaSheets)
		if err != nil {
			return err
		}
		var v any = reps
		if len(reps) == 1 {
			v = reps[0]
		}
		return emit(cmd.OutOrStdout(), anaOutputPath, v, func() string {
			parts := make([]string, len(reps))
			for i, r := range reps {
				parts[i] = r.Markdown()
			}
			return strings.Join(parts, "\n---\n\n")
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of normalized rows to include (0 to disable)")
	analyzeCmd.Flags().StringArrayVar(&anaTypes, "type", nil, "force a column type, e.g. --type Amount=number (repeatable)")
	anaSheets.bind(analyzeCmd.Flags(), true)
}

