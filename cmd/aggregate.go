package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/finnorm-cli/internal/analysis"
	"github.com/KaramelBytes/finnorm-cli/internal/store"
)

var (
	aggGroupBy string
	aggColumn  string
	aggFunc    string
	aggTypes   []string
	aggSheets  sheetFlags
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <file>",
	Short: "Group rows by a column and aggregate another (sum, count, mean, median, std, min, max)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if aggGroupBy == "" || aggColumn == "" {
			return errors.New("--group-by and --agg-column are required")
		}
		fn := aggFunc
		if !cmd.Flags().Changed("func") {
			fn = currentConfig().DefaultAggFunc
		}
		sess, err := newSession(cmd.Context(), aggTypes)
		if err != nil {
			return err
		}
		rep, err := sess.loadOne(args[0], aggSheets)
		if err != nil {
			return err
		}
		agg, err := sess.store.Aggregate(rep.Name, aggGroupBy, aggColumn, fn)
		if err != nil {
			var ce *store.ConfigError
			if errors.As(err, &ce) {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(sess.store.Aggregators(), ", "))
			}
			// unknown columns yield an empty result
			warn(cmd.ErrOrStderr(), err)
		}
		return emit(cmd.OutOrStdout(), "", agg, func() string {
			rows := make([][]string, len(agg.Groups))
			for i, g := range agg.Groups {
				rows[i] = []string{g.Key.String(), g.Value.String(), strconv.Itoa(g.Size)}
			}
			header := []string{agg.GroupBy, fmt.Sprintf("%s(%s)", agg.Func, agg.Column), "rows"}
			return analysis.MarkdownTable(header, rows)
		})
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	fs := aggregateCmd.Flags()
	fs.StringVarP(&aggGroupBy, "group-by", "g", "", "column to group by")
	fs.StringVarP(&aggColumn, "agg-column", "c", "", "column to aggregate")
	fs.StringVar(&aggFunc, "func", "sum", "aggregation function: sum|count|mean|median|std|min|max")
	fs.StringArrayVar(&aggTypes, "type", nil, "force a column type, e.g. --type Amount=number (repeatable)")
	aggSheets.bind(fs, false)
}
