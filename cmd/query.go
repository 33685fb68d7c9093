package cmd

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/finnorm-cli/internal/store"
)

var (
	qFrom, qTo string
	qMin, qMax float64
	qColumn    string
	qLimit     int
	qTypes     []string
	qSheets    sheetFlags
)

var (
	earliestDate = civil.Date{Year: 1, Month: time.January, Day: 1}
	latestDate   = civil.Date{Year: 9999, Month: time.December, Day: 31}
)

var queryCmd = &cobra.Command{
	Use:   "query <file>",
	Short: "Select rows by date range (--from/--to) or amount range (--min/--max)",
	Long: `Query loads one sheet, normalizes it and returns the rows whose indexed
date or amount column falls inside an inclusive range, ordered by that column.
Bounds accept any supported format (e.g. --from "Q1 2024" --to 2024-06-30).
An omitted bound is open.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		byDate := f.Changed("from") || f.Changed("to")
		byAmount := f.Changed("min") || f.Changed("max")
		if byDate == byAmount {
			return errors.New("choose either a date range (--from/--to) or an amount range (--min/--max)")
		}
		sess, err := newSession(cmd.Context(), qTypes)
		if err != nil {
			return err
		}
		rep, err := sess.loadOne(args[0], qSheets)
		if err != nil {
			return err
		}

		var res *store.Result
		var qerr error
		if byDate {
			lo, hi := earliestDate, latestDate
			if f.Changed("from") {
				if lo, err = parseBound(qFrom, "--from"); err != nil {
					return err
				}
			}
			if f.Changed("to") {
				if hi, err = parseBound(qTo, "--to"); err != nil {
					return err
				}
			}
			res, qerr = sess.store.QueryByDateRangeOn(rep.Name, qColumn, lo, hi)
		} else {
			lo, hi := math.Inf(-1), math.Inf(1)
			if f.Changed("min") {
				lo = qMin
			}
			if f.Changed("max") {
				hi = qMax
			}
			res, qerr = sess.store.QueryByAmountRangeOn(rep.Name, qColumn, lo, hi)
		}
		if qerr != nil {
			// schema problems are reported, not fatal
			warn(cmd.ErrOrStderr(), qerr)
		}
		if res.Columns == nil {
			res.Columns = []string{}
		}
		total := res.Len()
		if qLimit > 0 && total > qLimit {
			res.Rows = res.Rows[:qLimit]
		}
		return emit(cmd.OutOrStdout(), "", res, func() string {
			var b strings.Builder
			b.WriteString(fmt.Sprintf("Dataset: %s  Column: %s  Matches: %d\n", res.Dataset, res.Column, total))
			if len(res.Rows) > 0 {
				b.WriteString(rowsTable(res.Columns, res.Rows))
			}
			return b.String()
		})
	},
}

func parseBound(s, flag string) (civil.Date, error) {
	n, err := normalizer()
	if err != nil {
		return civil.Date{}, err
	}
	d, ok := n.ParseDate(s)
	if !ok {
		return civil.Date{}, fmt.Errorf("invalid %s date: %q", flag, s)
	}
	return d, nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	fs := queryCmd.Flags()
	fs.StringVar(&qFrom, "from", "", "inclusive start date")
	fs.StringVar(&qTo, "to", "", "inclusive end date")
	fs.Float64Var(&qMin, "min", 0, "inclusive minimum amount")
	fs.Float64Var(&qMax, "max", 0, "inclusive maximum amount")
	fs.StringVar(&qColumn, "column", "", "indexed column to query (default: first date/number column)")
	fs.IntVar(&qLimit, "limit", 0, "print at most N rows (0 = all)")
	fs.StringArrayVar(&qTypes, "type", nil, "force a column type, e.g. --type Amount=number (repeatable)")
	qSheets.bind(fs, false)
}
