package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Read loads every worksheet. The first non-blank row of each sheet is its
// header. Numeric cells keep their raw value; cells with a date number format
// are turned into ISO date literals.
func (xlsxReader) Read(path string, opt Options) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	wb := &Workbook{Path: path}
	styles := &dateStyles{f: f, known: map[int]bool{}}
	for _, name := range f.GetSheetList() {
		sh, err := readSheet(f, styles, name, opt)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sh)
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook '%s'", path)
	}
	return wb, nil
}

func readSheet(f *excelize.File, styles *dateStyles, name string, opt Options) (*Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet '%s': %w", name, err)
	}
	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return &Sheet{Name: name, Columns: []string{}, Rows: [][]normalize.RawValue{}}, nil
	}
	header := rows[start]
	var data [][]normalize.RawValue
	truncated := false
	for i := start + 1; i < len(rows); i++ {
		if opt.MaxRows > 0 && len(data) >= opt.MaxRows {
			truncated = true
			break
		}
		rec := rows[i]
		row := make([]normalize.RawValue, len(rec))
		for j, cell := range rec {
			row[j] = cellValue(f, styles, name, j+1, i+1, cell)
		}
		data = append(data, row)
	}
	sh := buildSheet(name, header, data)
	sh.Truncated = truncated
	return sh, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellValue classifies one cell using its stored type and number format.
func cellValue(f *excelize.File, styles *dateStyles, sheet string, col, row int, raw string) normalize.RawValue {
	if strings.TrimSpace(raw) == "" {
		return normalize.Absent()
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return normalize.Text(raw)
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return normalize.Text(raw)
	}
	switch typ {
	case excelize.CellTypeDate:
		return normalize.DateLiteral(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return normalize.Text(raw)
		}
		if styles.isDate(sheet, ref) {
			if t, err := excelize.ExcelDateToTime(x, false); err == nil {
				return normalize.DateLiteral(t.Format("2006-01-02"))
			}
		}
		return normalize.Number(raw)
	default:
		return normalize.Text(raw)
	}
}

// dateStyles caches whether a style id carries a date number format.
type dateStyles struct {
	f     *excelize.File
	known map[int]bool
}

func (d *dateStyles) isDate(sheet, ref string) bool {
	id, err := d.f.GetCellStyle(sheet, ref)
	if err != nil || id == 0 {
		return false
	}
	if v, ok := d.known[id]; ok {
		return v
	}
	v := false
	if st, err := d.f.GetStyle(id); err == nil && st != nil {
		if st.CustomNumFmt != nil {
			v = dateFormatCode(*st.CustomNumFmt)
		} else {
			v = builtinDateFormat(st.NumFmt)
		}
	}
	d.known[id] = v
	return v
}

// builtinDateFormat reports the built-in number formats that render dates.
func builtinDateFormat(id int) bool {
	return (id >= 14 && id <= 17) || id == 22 || (id >= 27 && id <= 36) || (id >= 50 && id <= 58)
}

// dateFormatCode looks for date tokens outside quoted literals and brackets.
func dateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}
