// Package analysis turns a raw sheet into a registered dataset: it classifies
// every column, rewrites number and date columns into canonical values and
// reports how well each column parsed.
package analysis

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/finnorm-cli/internal/detect"
	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
	"github.com/KaramelBytes/finnorm-cli/internal/sheets"
	"github.com/KaramelBytes/finnorm-cli/internal/store"
)

// Options controls preparation of a sheet.
type Options struct {
	Normalizer normalize.Normalizer
	// Threshold is the detector's minimum confidence; 0 uses the default.
	Threshold float64
	// SampleRows determines how many normalized rows to include in the report.
	SampleRows int
	// TopValues limits the most frequent values listed for text columns.
	TopValues int
	// Overrides forces a column type instead of detecting it.
	Overrides map[string]detect.ColumnType
}

// DefaultOptions returns reasonable defaults for dataset preparation.
func DefaultOptions() Options {
	return Options{
		Threshold:  detect.DefaultThreshold,
		SampleRows: 5,
		TopValues:  3,
	}
}

// lowConfidence flags number/date columns where many values failed to parse.
const lowConfidence = 0.9

// Report is a markdown-friendly summary of a prepared dataset.
type Report struct {
	Name      string          `json:"name" yaml:"name"`
	DatasetID string          `json:"dataset_id,omitempty" yaml:"dataset_id,omitempty"`
	File      string          `json:"file,omitempty" yaml:"file,omitempty"`
	Sheet     string          `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Rows      int             `json:"rows" yaml:"rows"`
	Truncated bool            `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Cols      []ColumnSummary `json:"columns" yaml:"columns"`
	Indexes   store.IndexInfo `json:"indexes" yaml:"indexes"`
	Samples   [][]string      `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings  []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ColumnSummary captures the classification and parse outcome per column.
type ColumnSummary struct {
	Name       string            `json:"name" yaml:"name"`
	Kind       detect.ColumnType `json:"kind" yaml:"kind"`
	Confidence float64           `json:"confidence" yaml:"confidence"`
	Forced     bool              `json:"forced,omitempty" yaml:"forced,omitempty"`
	NonNull    int               `json:"non_null" yaml:"non_null"`
	Missing    int               `json:"missing" yaml:"missing"`
	// Parsed and Failed count non-empty cells of number/date columns.
	Parsed int `json:"parsed" yaml:"parsed"`
	Failed int `json:"failed" yaml:"failed"`
	// Number stats
	Min  float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Sum  float64 `json:"sum,omitempty" yaml:"sum,omitempty"`
	// Date range
	First string `json:"first,omitempty" yaml:"first,omitempty"`
	Last  string `json:"last,omitempty" yaml:"last,omitempty"`
	// Text top values
	Unique    int             `json:"unique,omitempty" yaml:"unique,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty" yaml:"top_values,omitempty"`
	// FailedExamples lists a few cells that did not parse.
	FailedExamples []string `json:"failed_examples,omitempty" yaml:"failed_examples,omitempty"`
}

// CategoryCount is a text value and its frequency.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// DatasetName derives a dataset name from a file and sheet. Single-sheet
// files use the file stem; workbooks append the sheet name.
func DatasetName(path, sheet string, multiSheet bool) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if multiSheet && sheet != "" {
		return stem + ":" + sheet
	}
	return stem
}

// Prepare classifies the sheet's columns, normalizes number and date columns
// and registers the result in st under name. Cells that fail to normalize
// become absent.
func Prepare(st *store.Store, name string, sh *sheets.Sheet, opt Options) (*Report, *store.Dataset, error) {
	if st == nil {
		return nil, nil, fmt.Errorf("prepare %s: nil store", name)
	}
	det := detect.New(detect.WithNormalizer(opt.Normalizer), detect.WithThreshold(opt.Threshold))
	nrows, ncols := sh.Shape()

	rows := make([]store.Row, nrows)
	for i := range rows {
		rows[i] = make(store.Row, ncols)
	}
	types := make(map[string]detect.ColumnType, ncols)
	rep := &Report{Name: name, Sheet: sh.Name, Rows: nrows, Truncated: sh.Truncated}

	for j, col := range sh.Columns {
		raw := make([]normalize.RawValue, nrows)
		for i, r := range sh.Rows {
			raw[i] = r[j]
		}
		cs := ColumnSummary{Name: col}
		if forced, ok := opt.Overrides[col]; ok {
			cs.Kind, cs.Confidence, cs.Forced = forced, forcedConfidence(det, forced, raw), true
		} else {
			c := det.Detect(raw)
			cs.Kind, cs.Confidence = c.Type, c.Confidence
		}
		types[col] = cs.Kind
		fillColumn(&cs, opt, raw, rows, j)
		if cs.Kind != detect.Text && cs.NonNull > 0 && cs.Confidence < lowConfidence {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %d of %d values could not be parsed as %s and are treated as missing", safeName(col), cs.Failed, cs.NonNull, cs.Kind))
		}
		rep.Cols = append(rep.Cols, cs)
	}
	if sh.Truncated {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("sheet truncated to %d rows", nrows))
	}

	ds, err := st.AddDataset(name, append([]string(nil), sh.Columns...), rows, types)
	if err != nil {
		return nil, nil, fmt.Errorf("register %s: %w", name, err)
	}
	rep.DatasetID = ds.ID
	if info, err := st.Indexes(name); err == nil {
		rep.Indexes = info
	}
	if len(rep.Indexes.DateColumns) == 0 && len(rep.Indexes.AmountColumns) == 0 && ncols > 0 {
		rep.Warnings = append(rep.Warnings, "no date or number column detected; range queries are unavailable")
	}

	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 5
	}
	for i := 0; i < nrows && i < sampleRows; i++ {
		out := make([]string, ncols)
		for j, v := range rows[i] {
			out[j] = v.String()
		}
		rep.Samples = append(rep.Samples, out)
	}
	return rep, ds, nil
}

// forcedConfidence reports the parse rate of a column whose type was given.
func forcedConfidence(det *detect.Detector, t detect.ColumnType, raw []normalize.RawValue) float64 {
	st := det.Analyze(raw)
	if st.NonAbsent == 0 {
		return 1
	}
	switch t {
	case detect.Number:
		return float64(st.Amounts) / float64(st.NonAbsent)
	case detect.Date:
		return float64(st.Dates) / float64(st.NonAbsent)
	}
	return 1
}

// fillColumn writes column j of rows and the matching summary fields.
func fillColumn(cs *ColumnSummary, opt Options, raw []normalize.RawValue, rows []store.Row, j int) {
	const maxFailedExamples = 3
	var amounts []float64
	var first, last civil.Date
	var haveDate bool
	cats := map[string]int{}
	n := opt.Normalizer

	for i, v := range raw {
		if v.IsAbsent() {
			cs.Missing++
			rows[i][j] = store.Absent()
			continue
		}
		cs.NonNull++
		switch cs.Kind {
		case detect.Number:
			if x, ok := n.Amount(v); ok {
				cs.Parsed++
				amounts = append(amounts, x)
				rows[i][j] = store.AmountOf(x)
				continue
			}
		case detect.Date:
			if d, ok := n.Date(v); ok {
				cs.Parsed++
				if !haveDate || d.Before(first) {
					first = d
				}
				if !haveDate || d.After(last) {
					last = d
				}
				haveDate = true
				rows[i][j] = store.DateOf(d)
				continue
			}
		default:
			rows[i][j] = store.RawOf(v)
			cats[v.String()]++
			continue
		}
		cs.Failed++
		rows[i][j] = store.Absent()
		if len(cs.FailedExamples) < maxFailedExamples {
			cs.FailedExamples = append(cs.FailedExamples, v.String())
		}
	}

	if len(amounts) > 0 {
		cs.Min, _ = stats.Min(amounts)
		cs.Max, _ = stats.Max(amounts)
		cs.Mean, _ = stats.Mean(amounts)
		total := decimal.Zero
		for _, x := range amounts {
			total = total.Add(decimal.NewFromFloat(x))
		}
		cs.Sum = total.InexactFloat64()
	}
	if haveDate {
		cs.First, cs.Last = first.String(), last.String()
	}
	if len(cats) > 0 {
		cs.Unique = len(cats)
		top := make([]CategoryCount, 0, len(cats))
		for v, c := range cats {
			top = append(top, CategoryCount{Value: v, Count: c})
		}
		sort.Slice(top, func(a, b int) bool {
			if top[a].Count == top[b].Count {
				return top[a].Value < top[b].Value
			}
			return top[a].Count > top[b].Count
		})
		limit := opt.TopValues
		if limit <= 0 {
			limit = 3
		}
		if len(top) > limit {
			top = top[:limit]
		}
		cs.TopValues = top
	}
}
