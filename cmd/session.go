package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/KaramelBytes/finnorm-cli/internal/analysis"
	"github.com/KaramelBytes/finnorm-cli/internal/detect"
	"github.com/KaramelBytes/finnorm-cli/internal/logger"
	"github.com/KaramelBytes/finnorm-cli/internal/sheets"
	"github.com/KaramelBytes/finnorm-cli/internal/store"
)

// sheetFlags selects which sheet of a workbook to load.
type sheetFlags struct {
	Name  string
	Index int
	All   bool
}

func (s *sheetFlags) bind(fs *pflag.FlagSet, withAll bool) {
	fs.StringVar(&s.Name, "sheet", "", "XLSX: sheet name to load (default first sheet)")
	fs.IntVar(&s.Index, "sheet-index", 0, "XLSX: 1-based sheet index (used when --sheet is empty)")
	if withAll {
		fs.BoolVar(&s.All, "all-sheets", false, "XLSX: load every sheet as its own dataset")
	}
}

// session owns the store for one command invocation.
type session struct {
	ctx   context.Context
	store *store.Store
	opt   analysis.Options
}

func newSession(ctx context.Context, overrides []string) (*session, error) {
	n, err := normalizer()
	if err != nil {
		return nil, err
	}
	c := currentConfig()
	opt := analysis.DefaultOptions()
	opt.Normalizer = n
	opt.Threshold = c.DetectThreshold
	opt.SampleRows = c.PreviewRows
	if len(overrides) > 0 {
		opt.Overrides, err = parseOverrides(overrides)
		if err != nil {
			return nil, err
		}
	}
	l := logger.FromContext(ctx)
	return &session{ctx: ctx, store: store.New(store.WithLogger(l)), opt: opt}, nil
}

// parseOverrides reads "column=type" pairs.
func parseOverrides(pairs []string) (map[string]detect.ColumnType, error) {
	out := make(map[string]detect.ColumnType, len(pairs))
	for _, p := range pairs {
		col, typ, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("invalid --type %q (use column=number|date|text)", p)
		}
		t, err := detect.ParseColumnType(typ)
		if err != nil {
			return nil, fmt.Errorf("invalid --type %q: %w", p, err)
		}
		out[strings.TrimSpace(col)] = t
	}
	return out, nil
}

// readWorkbook reads a file with the configured ingestion options.
func readWorkbook(path string) (*sheets.Workbook, error) {
	c := currentConfig()
	return sheets.ReadFile(path, sheets.Options{Delimiter: c.Delimiter(), MaxRows: c.MaxRows})
}

// load reads path and registers the selected sheets. With sel.All every
// sheet becomes a dataset; otherwise only the chosen one.
func (s *session) load(path string, sel sheetFlags) ([]*analysis.Report, error) {
	l := logger.FromContext(s.ctx)
	wb, err := readWorkbook(path)
	if err != nil {
		return nil, err
	}
	var picked []*sheets.Sheet
	if sel.All {
		picked = wb.Sheets
	} else {
		sh, err := wb.Select(sel.Name, sel.Index)
		if err != nil {
			return nil, err
		}
		picked = []*sheets.Sheet{sh}
	}
	multi := sel.All && len(wb.Sheets) > 1
	var reports []*analysis.Report
	for _, sh := range picked {
		name := analysis.DatasetName(path, sh.Name, multi)
		rep, _, err := analysis.Prepare(s.store, name, sh, s.opt)
		if err != nil {
			return nil, err
		}
		rep.File = filepath.Base(path)
		l.Debug().Str("file", path).Str("sheet", sh.Name).Str("dataset", name).Int("rows", rep.Rows).Msg("sheet loaded")
		reports = append(reports, rep)
	}
	return reports, nil
}

// loadOne loads a single sheet.
func (s *session) loadOne(path string, sel sheetFlags) (*analysis.Report, error) {
	sel.All = false
	reps, err := s.load(path, sel)
	if err != nil {
		return nil, err
	}
	return reps[0], nil
}
