package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/finnorm-cli/internal/analysis"
	"github.com/KaramelBytes/finnorm-cli/internal/store"
	"github.com/KaramelBytes/finnorm-cli/internal/utils"
)

// outputFormat returns the effective output format.
func outputFormat() (string, error) {
	f := strings.ToLower(strings.TrimSpace(currentConfig().OutputFormat))
	switch f {
	case "", "table", "md", "markdown":
		return "table", nil
	case "json", "yaml":
		return f, nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use table|json|yaml)", f)
	}
}

// render encodes v in the effective format. table is called for the table
// format only.
func render(v any, table func() string) ([]byte, error) {
	format, err := outputFormat()
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml":
		return utils.PrettyYAML(v)
	default:
		return []byte(table()), nil
	}
}

// emit writes the rendered value to w, and to path when given.
func emit(w io.Writer, path string, v any, table func() string) error {
	b, err := render(v, table)
	if err != nil {
		return err
	}
	if path != "" {
		if err := utils.SafeWriteFile(path, b); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote output to %s\n", path)
		return nil
	}
	_, err = w.Write(b)
	return err
}

// rowsTable renders store rows as a Markdown table.
func rowsTable(columns []string, rows []store.Row) string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = v.String()
		}
		out[i] = cells
	}
	return analysis.MarkdownTable(columns, out)
}

func warn(w io.Writer, err error) {
	fmt.Fprintf(w, "⚠ Warning: %v\n", err)
}
