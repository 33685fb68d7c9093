package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/finnorm-cli/internal/analysis"
	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
	"github.com/KaramelBytes/finnorm-cli/internal/store"
)

// parsed is one normalized literal.
type parsed struct {
	Input string      `json:"input" yaml:"input"`
	Value store.Value `json:"value" yaml:"value"`
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Normalize literal amounts or dates",
}

var parseAmountCmd = &cobra.Command{
	Use:   "amount <values...>",
	Short: "Normalize amount literals such as \"$1,234.56\", \"(500)\" or \"1.5K\"",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := normalizer()
		if err != nil {
			return err
		}
		return emitParsed(cmd, args, func(s string) store.Value {
			if x, ok := n.ParseAmount(s); ok {
				return store.AmountOf(x)
			}
			return store.Absent()
		})
	},
}

var parseDateCmd = &cobra.Command{
	Use:   "date <values...>",
	Short: "Normalize date literals such as \"2024-01-15\", \"Q3 2024\" or \"45292\"",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := normalizer()
		if err != nil {
			return err
		}
		return emitParsed(cmd, args, func(s string) store.Value {
			if d, ok := n.Date(normalize.Text(s)); ok {
				return store.DateOf(d)
			}
			return store.Absent()
		})
	},
}

func emitParsed(cmd *cobra.Command, args []string, fn func(string) store.Value) error {
	out := make([]parsed, len(args))
	rows := make([][]string, len(args))
	for i, a := range args {
		out[i] = parsed{Input: a, Value: fn(a)}
		shown := out[i].Value.String()
		if out[i].Value.IsAbsent() {
			shown = "(absent)"
		}
		rows[i] = []string{a, shown}
	}
	return emit(cmd.OutOrStdout(), "", out, func() string {
		return analysis.MarkdownTable([]string{"input", "value"}, rows)
	})
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.AddCommand(parseAmountCmd)
	parseCmd.AddCommand(parseDateCmd)
}
