package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/finnorm-cli/internal/analysis"
	"github.com/KaramelBytes/finnorm-cli/internal/utils"
)

var (
	ldReportsDir string
	ldQuiet      bool
	ldTypes      []string
)

// loadedDataset is one row of the load listing.
type loadedDataset struct {
	Name          string   `json:"name" yaml:"name"`
	ID            string   `json:"id" yaml:"id"`
	File          string   `json:"file" yaml:"file"`
	Sheet         string   `json:"sheet" yaml:"sheet"`
	Rows          int      `json:"rows" yaml:"rows"`
	Columns       int      `json:"columns" yaml:"columns"`
	DateColumns   []string `json:"date_columns" yaml:"date_columns"`
	AmountColumns []string `json:"amount_columns" yaml:"amount_columns"`
	Report        string   `json:"report,omitempty" yaml:"report,omitempty"`
}

var loadCmd = &cobra.Command{
	Use:   "load <files...>",
	Short: "Load many CSV/TSV/XLSX files (all sheets) and list the registered datasets",
	Long: `Load expands globs, reads every sheet of every file, normalizes it and
registers it as a dataset. Datasets are named after the file (and sheet for
multi-sheet workbooks); name collisions get a numeric suffix. With
--reports-dir each dataset's analysis report is written there as Markdown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		sess, err := newSession(cmd.Context(), ldTypes)
		if err != nil {
			return err
		}
		progress := cmd.ErrOrStderr()
		var listed []loadedDataset
		total := len(files)
		for i, path := range files {
			if !ldQuiet {
				fmt.Fprintf(progress, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			wb, err := readWorkbook(path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			multi := len(wb.Sheets) > 1
			for _, sh := range wb.Sheets {
				name := uniqueDatasetName(sess, analysis.DatasetName(path, sh.Name, multi))
				rep, ds, err := analysis.Prepare(sess.store, name, sh, sess.opt)
				if err != nil {
					return err
				}
				rep.File = filepath.Base(path)
				item := loadedDataset{
					Name:          name,
					ID:            ds.ID,
					File:          rep.File,
					Sheet:         sh.Name,
					Rows:          ds.Len(),
					Columns:       len(ds.Columns),
					DateColumns:   rep.Indexes.DateColumns,
					AmountColumns: rep.Indexes.AmountColumns,
				}
				if ldReportsDir != "" {
					out, err := writeReport(ldReportsDir, name, rep)
					if err != nil {
						return err
					}
					item.Report = out
				}
				listed = append(listed, item)
			}
		}
		return emit(cmd.OutOrStdout(), "", listed, func() string {
			rows := make([][]string, len(listed))
			for i, d := range listed {
				rows[i] = []string{d.Name, d.File, d.Sheet, strconv.Itoa(d.Rows), strconv.Itoa(d.Columns),
					strings.Join(d.DateColumns, ", "), strings.Join(d.AmountColumns, ", ")}
			}
			return analysis.MarkdownTable([]string{"dataset", "file", "sheet", "rows", "columns", "date index", "amount index"}, rows)
		})
	},
}

// uniqueDatasetName suffixes name with __2, __3, ... while it is taken.
func uniqueDatasetName(sess *session, name string) string {
	if _, err := sess.store.Dataset(name); err != nil {
		return name
	}
	for idx := 2; ; idx++ {
		cand := fmt.Sprintf("%s__%d", name, idx)
		if _, err := sess.store.Dataset(cand); err != nil {
			return cand
		}
	}
}

// writeReport stores a dataset report as <dir>/<name>.summary.md.
func writeReport(dir, name string, rep *analysis.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	outFile := filepath.Join(dir, safeFileName(name)+".summary.md")
	if err := utils.SafeWriteFile(outFile, []byte(rep.Markdown())); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return outFile, nil
}

// safeFileName keeps letters, digits, '.', '_' and turns separators into '-'.
func safeFileName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == ':':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "dataset"
	}
	return out
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&ldReportsDir, "reports-dir", "", "write a Markdown report per dataset into this directory")
	loadCmd.Flags().BoolVarP(&ldQuiet, "quiet", "q", false, "suppress progress output")
	loadCmd.Flags().StringArrayVar(&ldTypes, "type", nil, "force a column type, e.g. --type Amount=number (repeatable)")
}
