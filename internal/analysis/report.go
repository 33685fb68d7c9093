package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the report in the sectioned layout used by the CLI.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	if r.File != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.File))
	}
	if r.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", r.Sheet))
	}
	if r.Truncated {
		b.WriteString(fmt.Sprintf("Rows: %d (truncated)\n", r.Rows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		kind := string(c.Kind)
		if c.Forced {
			kind += ", forced"
		}
		b.WriteString(fmt.Sprintf("- %s: %s (confidence %.2f, non-null %d, missing %.1f%%)", safeName(c.Name), kind, c.Confidence, c.NonNull, missPct))
		switch c.Kind {
		case "number":
			if c.Parsed > 0 {
				b.WriteString(fmt.Sprintf(" - min %.4g, max %.4g, mean %.4g, sum %.4g", c.Min, c.Max, c.Mean, c.Sum))
			}
		case "date":
			if c.First != "" {
				b.WriteString(fmt.Sprintf(" - %s to %s", c.First, c.Last))
			}
		case "text":
			if len(c.TopValues) > 0 {
				b.WriteString(" - top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		if c.Failed > 0 {
			b.WriteString(fmt.Sprintf("; unparsed %d", c.Failed))
			if len(c.FailedExamples) > 0 {
				b.WriteString(" e.g. ")
				b.WriteString(safeVal(strings.Join(c.FailedExamples, ", ")))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Indexes.DateColumns) > 0 || len(r.Indexes.AmountColumns) > 0 {
		b.WriteString("\n[INDEXES]\n")
		if len(r.Indexes.DateColumns) > 0 {
			b.WriteString(fmt.Sprintf("- date: %s (default %s)\n", strings.Join(r.Indexes.DateColumns, ", "), r.Indexes.DefaultDate))
		}
		if len(r.Indexes.AmountColumns) > 0 {
			b.WriteString(fmt.Sprintf("- amount: %s (default %s)\n", strings.Join(r.Indexes.AmountColumns, ", "), r.Indexes.DefaultAmount))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = c.Name
		}
		b.WriteString(MarkdownTable(names, r.Samples))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// MarkdownTable renders a header and string rows as a Markdown table. Long
// cells are cut to 80 characters.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, c := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(safeName(c)))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if r := []rune(val); len(r) > 80 {
				val = string(r[:77]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
