// Package store keeps normalized datasets in memory and answers range and
// grouped aggregate queries over them.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/finnorm-cli/internal/detect"
)

// Row is one record, aligned with its Dataset's Columns.
type Row []Value

// Dataset is a registered, normalized table.
type Dataset struct {
	ID           string                       `json:"id" yaml:"id"`
	Name         string                       `json:"name" yaml:"name"`
	Columns      []string                     `json:"columns" yaml:"columns"`
	Types        map[string]detect.ColumnType `json:"types" yaml:"types"`
	Rows         []Row                        `json:"-" yaml:"-"`
	RegisteredAt time.Time                    `json:"registered_at" yaml:"registered_at"`

	colIndex map[string]int
}

// ColumnIndex returns the position of a column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.colIndex[name]
	return i, ok
}

// Len is the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// IndexInfo describes the range indexes built for a dataset.
type IndexInfo struct {
	DateColumns   []string `json:"date_columns" yaml:"date_columns"`
	AmountColumns []string `json:"amount_columns" yaml:"amount_columns"`
	// Default* name the column used by QueryByDateRange / QueryByAmountRange:
	// the first column of that type in schema order.
	DefaultDate   string `json:"default_date,omitempty" yaml:"default_date,omitempty"`
	DefaultAmount string `json:"default_amount,omitempty" yaml:"default_amount,omitempty"`
}

type indexSet struct {
	info    IndexInfo
	dates   map[string]*RangeIndex[civil.Date]
	amounts map[string]*RangeIndex[float64]
}

// Result is the outcome of a range query. Rows are shared with the dataset
// and must not be modified.
type Result struct {
	Dataset string   `json:"dataset" yaml:"dataset"`
	Column  string   `json:"column,omitempty" yaml:"column,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Len is the number of matching rows.
func (r *Result) Len() int { return len(r.Rows) }

// Store owns named datasets and their indexes. Registration takes a write
// lock; queries share a read lock.
type Store struct {
	mu          sync.RWMutex
	datasets    map[string]*Dataset
	indexes     map[string]*indexSet
	aggregators map[string]Aggregator
	log         zerolog.Logger
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock overrides the registration timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New returns an empty store with the default aggregators.
func New(opts ...Option) *Store {
	s := &Store{
		datasets:    make(map[string]*Dataset),
		indexes:     make(map[string]*indexSet),
		aggregators: defaultAggregators(),
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddDataset registers rows under name, replacing any previous dataset with
// that name. types must have exactly one entry per column and every row must
// have one value per column. A date index is built for every date column and
// an amount index for every number column; values of the wrong kind are left
// out of the index like absent ones. The store takes ownership of rows.
func (s *Store) AddDataset(name string, columns []string, rows []Row, types map[string]detect.ColumnType) (*Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidDataset)
	}
	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := colIndex[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidDataset, c)
		}
		if _, ok := types[c]; !ok {
			return nil, fmt.Errorf("%w: column %q has no type", ErrInvalidDataset, c)
		}
		colIndex[c] = i
	}
	if len(types) != len(columns) {
		for c := range types {
			if _, ok := colIndex[c]; !ok {
				return nil, fmt.Errorf("%w: type given for unknown column %q", ErrInvalidDataset, c)
			}
		}
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidDataset, i, len(r), len(columns))
		}
	}

	ds := &Dataset{
		ID:           uuid.NewString(),
		Name:         name,
		Columns:      columns,
		Types:        types,
		Rows:         rows,
		RegisteredAt: s.now(),
		colIndex:     colIndex,
	}
	ix := &indexSet{
		dates:   make(map[string]*RangeIndex[civil.Date]),
		amounts: make(map[string]*RangeIndex[float64]),
	}
	for i, c := range columns {
		switch types[c] {
		case detect.Date:
			ix.dates[c] = newDateIndex(c, i, rows)
			ix.info.DateColumns = append(ix.info.DateColumns, c)
			if ix.info.DefaultDate == "" {
				ix.info.DefaultDate = c
			}
		case detect.Number:
			ix.amounts[c] = newAmountIndex(c, i, rows)
			ix.info.AmountColumns = append(ix.info.AmountColumns, c)
			if ix.info.DefaultAmount == "" {
				ix.info.DefaultAmount = c
			}
		}
	}

	s.mu.Lock()
	_, replaced := s.datasets[name]
	s.datasets[name] = ds
	s.indexes[name] = ix
	s.mu.Unlock()

	s.log.Debug().
		Str("dataset", name).
		Str("id", ds.ID).
		Int("rows", len(rows)).
		Int("columns", len(columns)).
		Strs("date_indexes", ix.info.DateColumns).
		Strs("amount_indexes", ix.info.AmountColumns).
		Bool("replaced", replaced).
		Msg("dataset registered")
	return ds, nil
}

// Dataset returns a registered dataset.
func (s *Store) Dataset(name string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[name]
	if !ok {
		return nil, &SchemaError{Dataset: name, Err: ErrUnknownDataset}
	}
	return ds, nil
}

// Datasets lists registered datasets by name.
func (s *Store) Datasets() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Remove drops a dataset and its indexes. It reports whether it existed.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[name]; !ok {
		return false
	}
	delete(s.datasets, name)
	delete(s.indexes, name)
	return true
}

// Indexes describes the indexes of a dataset.
func (s *Store) Indexes(name string) (IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ix, ok := s.indexes[name]
	if !ok {
		return IndexInfo{}, &SchemaError{Dataset: name, Err: ErrUnknownDataset}
	}
	return ix.info, nil
}

// QueryByDateRange returns rows whose default date column lies in
// [start, end], in ascending date order. An unknown dataset or a dataset
// without a date column yields an empty result and a *SchemaError.
func (s *Store) QueryByDateRange(name string, start, end civil.Date) (*Result, error) {
	return s.QueryByDateRangeOn(name, "", start, end)
}

// QueryByDateRangeOn is QueryByDateRange over a named date column. An empty
// column selects the default one.
func (s *Store) QueryByDateRangeOn(name, column string, start, end civil.Date) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ix, err := s.lookup(name)
	if err != nil {
		return s.emptyResult(name, column, err)
	}
	if column == "" {
		column = ix.info.DefaultDate
	}
	idx, ok := ix.dates[column]
	if !ok {
		return s.emptyResult(name, column, s.missingIndex(ds, column))
	}
	return s.collect(ds, column, idx.Range(start, end)), nil
}

// QueryByAmountRange returns rows whose default amount column lies in
// [min, max], in ascending amount order. Failure modes match QueryByDateRange.
func (s *Store) QueryByAmountRange(name string, min, max float64) (*Result, error) {
	return s.QueryByAmountRangeOn(name, "", min, max)
}

// QueryByAmountRangeOn is QueryByAmountRange over a named number column.
func (s *Store) QueryByAmountRangeOn(name, column string, min, max float64) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ix, err := s.lookup(name)
	if err != nil {
		return s.emptyResult(name, column, err)
	}
	if column == "" {
		column = ix.info.DefaultAmount
	}
	idx, ok := ix.amounts[column]
	if !ok {
		return s.emptyResult(name, column, s.missingIndex(ds, column))
	}
	return s.collect(ds, column, idx.Range(min, max)), nil
}

func (s *Store) lookup(name string) (*Dataset, *indexSet, error) {
	ds, ok := s.datasets[name]
	if !ok {
		return nil, nil, &SchemaError{Dataset: name, Err: ErrUnknownDataset}
	}
	return ds, s.indexes[name], nil
}

func (s *Store) missingIndex(ds *Dataset, column string) error {
	if column != "" {
		if _, ok := ds.colIndex[column]; !ok {
			return &SchemaError{Dataset: ds.Name, Column: column, Err: ErrInvalidColumn}
		}
	}
	return &SchemaError{Dataset: ds.Name, Column: column, Err: ErrNoIndex}
}

func (s *Store) collect(ds *Dataset, column string, positions []int) *Result {
	res := &Result{Dataset: ds.Name, Column: column, Columns: ds.Columns, Rows: make([]Row, 0, len(positions))}
	for _, p := range positions {
		res.Rows = append(res.Rows, ds.Rows[p])
	}
	return res
}

func (s *Store) emptyResult(name, column string, err error) (*Result, error) {
	s.log.Warn().Err(err).Str("dataset", name).Str("column", column).Msg("query returned no rows")
	return &Result{Dataset: name, Column: column, Rows: []Row{}}, err
}
