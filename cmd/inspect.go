package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/finnorm-cli/internal/analysis"
	"github.com/KaramelBytes/finnorm-cli/internal/utils"
)

var insPreviewRows int

// sheetInfo describes one sheet without normalizing it.
type sheetInfo struct {
	File      string     `json:"file" yaml:"file"`
	Sheet     string     `json:"sheet" yaml:"sheet"`
	Rows      int        `json:"rows" yaml:"rows"`
	Columns   []string   `json:"columns" yaml:"columns"`
	Truncated bool       `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Preview   [][]string `json:"preview,omitempty" yaml:"preview,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <files...>",
	Short: "List sheets, shapes, columns and the first rows of CSV/TSV/XLSX files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		preview := currentConfig().PreviewRows
		if cmd.Flags().Changed("preview-rows") {
			preview = insPreviewRows
		}
		var infos []sheetInfo
		for _, path := range files {
			wb, err := readWorkbook(path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			for _, sh := range wb.Sheets {
				rows, _ := sh.Shape()
				info := sheetInfo{File: filepath.Base(path), Sheet: sh.Name, Rows: rows, Columns: sh.Columns, Truncated: sh.Truncated}
				for _, r := range sh.Preview(preview) {
					cells := make([]string, len(r))
					for j, v := range r {
						cells[j] = v.String()
					}
					info.Preview = append(info.Preview, cells)
				}
				infos = append(infos, info)
			}
		}
		return emit(cmd.OutOrStdout(), "", infos, func() string {
			var b strings.Builder
			for i, in := range infos {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(fmt.Sprintf("[%s / %s]\n", in.File, in.Sheet))
				b.WriteString(fmt.Sprintf("Shape: %d rows x %d columns\n", in.Rows, len(in.Columns)))
				b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(in.Columns, ", ")))
				if len(in.Preview) > 0 {
					b.WriteString(analysis.MarkdownTable(in.Columns, in.Preview))
				}
			}
			return b.String()
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&insPreviewRows, "preview-rows", 5, "rows to preview per sheet (0 to disable)")
}
