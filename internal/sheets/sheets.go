// Package sheets reads spreadsheet-like files into named sheets of raw cells.
package sheets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

// ErrUnsupported indicates a file format no registered reader handles.
var ErrUnsupported = errors.New("unsupported sheet format")

// Options controls how files are read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the extension and header line.
	Delimiter rune
	// MaxRows limits data rows read per sheet; 0 means unlimited.
	MaxRows int
}

// Sheet is a header row plus data rows of raw cells. Every row has exactly
// len(Columns) cells.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]normalize.RawValue
	// Truncated is set when MaxRows cut the sheet short.
	Truncated bool
}

// Shape returns the number of data rows and columns.
func (s *Sheet) Shape() (rows, cols int) { return len(s.Rows), len(s.Columns) }

// Column returns a copy of one column's cells.
func (s *Sheet) Column(name string) ([]normalize.RawValue, bool) {
	idx := -1
	for i, c := range s.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]normalize.RawValue, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Preview returns up to n leading rows.
func (s *Sheet) Preview(n int) [][]normalize.RawValue {
	if n < 0 || n > len(s.Rows) {
		n = len(s.Rows)
	}
	return s.Rows[:n]
}

// Workbook is the set of sheets read from one file.
type Workbook struct {
	Path   string
	Sheets []*Sheet
}

// Names lists the sheet names in file order.
func (w *Workbook) Names() []string {
	out := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		out[i] = s.Name
	}
	return out
}

// Sheet finds a sheet by case-insensitive name.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	for _, s := range w.Sheets {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
		name, filepath.Base(w.Path), strings.Join(w.Names(), ", "))
}

// SheetAt returns a sheet by 1-based position.
func (w *Workbook) SheetAt(index int) (*Sheet, error) {
	if index < 1 || index > len(w.Sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (workbook '%s' has %d sheets)", index, filepath.Base(w.Path), len(w.Sheets))
	}
	return w.Sheets[index-1], nil
}

// Select picks a sheet by name if given, otherwise by 1-based index
// (0 means the first sheet).
func (w *Workbook) Select(name string, index int) (*Sheet, error) {
	if name != "" {
		return w.Sheet(name)
	}
	if index <= 0 {
		index = 1
	}
	return w.SheetAt(index)
}

// Reader reads one family of file formats.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Workbook, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on the file name.
func ReadFile(path string, opt Options) (*Workbook, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// buildSheet turns a header and decoded rows into a Sheet. Blank header cells
// become "Unnamed: N" and repeated names get a ".N" suffix. Rows with no
// value at all are dropped.
func buildSheet(name string, header []string, rows [][]normalize.RawValue) *Sheet {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		cols[i] = h
	}
	sh := &Sheet{Name: name, Columns: cols, Rows: make([][]normalize.RawValue, 0, len(rows))}
	for _, r := range rows {
		if len(r) < len(cols) {
			tmp := make([]normalize.RawValue, len(cols))
			copy(tmp, r)
			r = tmp
		} else if len(r) > len(cols) {
			r = r[:len(cols)]
		}
		blank := true
		for _, v := range r {
			if !v.IsAbsent() {
				blank = false
				break
			}
		}
		if !blank {
			sh.Rows = append(sh.Rows, r)
		}
	}
	return sh
}
