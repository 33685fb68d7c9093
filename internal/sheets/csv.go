package sheets

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

// Read loads a delimited text file as a single sheet named after the file.
// Every cell comes back as text; typing is left to the normalizer.
func (csvReader) Read(path string, opt Options) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	wb := &Workbook{Path: path}

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		wb.Sheets = []*Sheet{{Name: name, Columns: []string{}, Rows: [][]normalize.RawValue{}}}
		return wb, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = append([]string(nil), header...)

	var rows [][]normalize.RawValue
	truncated := false
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			truncated = true
			break
		}
		row := make([]normalize.RawValue, len(rec))
		for i, cell := range rec {
			row[i] = normalize.Text(cell)
		}
		rows = append(rows, row)
	}
	sh := buildSheet(name, header, rows)
	sh.Truncated = truncated
	wb.Sheets = []*Sheet{sh}
	return wb, nil
}

// sniffDelimiter picks tab for .tsv files, otherwise whichever of ',', ';',
// '\t' or '|' occurs most often in the first line. Ties favor the comma.
func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	f, err := os.Open(path)
	if err != nil {
		return ','
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return ','
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
