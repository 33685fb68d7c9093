package store

import (
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/finnorm-cli/internal/detect"
)

// Aggregator reduces the values of one group to a single value.
type Aggregator struct {
	// Supports reports whether the function applies to a column type.
	Supports func(detect.ColumnType) bool
	// Reduce receives the group's non-absent values.
	Reduce func(values []Value) Value
}

// AggSum is the default aggregation function.
const AggSum = "sum"

// GroupResult is one output row of Aggregate.
type GroupResult struct {
	Key   Value `json:"key" yaml:"key"`
	Value Value `json:"value" yaml:"value"`
	// Size counts the group's rows, including rows with an absent value.
	Size int `json:"size" yaml:"size"`
}

// Aggregation is the result of Aggregate. Groups appear in first-seen order.
type Aggregation struct {
	Dataset string        `json:"dataset" yaml:"dataset"`
	GroupBy string        `json:"group_by" yaml:"group_by"`
	Column  string        `json:"column" yaml:"column"`
	Func    string        `json:"func" yaml:"func"`
	Groups  []GroupResult `json:"groups" yaml:"groups"`
}

// ByKey indexes the groups by the string form of their key.
func (a *Aggregation) ByKey() map[string]Value {
	out := make(map[string]Value, len(a.Groups))
	for _, g := range a.Groups {
		out[g.Key.String()] = g.Value
	}
	return out
}

// RegisterAggregator adds or replaces an aggregation function.
func (s *Store) RegisterAggregator(name string, agg Aggregator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregators[strings.ToLower(name)] = agg
}

// Aggregators lists the available function names.
func (s *Store) Aggregators() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.aggregators))
	for n := range s.aggregators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Aggregate groups a dataset's rows by groupBy and applies fn to aggColumn
// within each group. An empty fn means sum. Rows with an absent group key are
// skipped. Unknown datasets and columns yield an empty result and a
// *SchemaError; unknown or inapplicable functions a *ConfigError.
func (s *Store) Aggregate(name, groupBy, aggColumn, fn string) (*Aggregation, error) {
	if fn == "" {
		fn = AggSum
	}
	fn = strings.ToLower(strings.TrimSpace(fn))
	out := &Aggregation{Dataset: name, GroupBy: groupBy, Column: aggColumn, Func: fn, Groups: []GroupResult{}}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[name]
	if !ok {
		return s.aggFailure(out, &SchemaError{Dataset: name, Err: ErrUnknownDataset})
	}
	gi, ok := ds.colIndex[groupBy]
	if !ok {
		return s.aggFailure(out, &SchemaError{Dataset: name, Column: groupBy, Err: ErrInvalidColumn})
	}
	ai, ok := ds.colIndex[aggColumn]
	if !ok {
		return s.aggFailure(out, &SchemaError{Dataset: name, Column: aggColumn, Err: ErrInvalidColumn})
	}
	agg, ok := s.aggregators[fn]
	if !ok {
		return s.aggFailure(out, &ConfigError{Func: fn, Err: ErrUnsupportedAggregation})
	}
	colType := ds.Types[aggColumn]
	if agg.Supports != nil && !agg.Supports(colType) {
		return s.aggFailure(out, &ConfigError{Func: fn, Column: aggColumn, Err: ErrUnsupportedAggregation})
	}

	type bucket struct {
		key    Value
		size   int
		values []Value
	}
	pos := make(map[Value]int)
	var buckets []*bucket
	for _, r := range ds.Rows {
		key := r[gi]
		if key.IsAbsent() {
			continue
		}
		i, seen := pos[key]
		if !seen {
			i = len(buckets)
			pos[key] = i
			buckets = append(buckets, &bucket{key: key})
		}
		b := buckets[i]
		b.size++
		if v := r[ai]; !v.IsAbsent() {
			b.values = append(b.values, v)
		}
	}
	for _, b := range buckets {
		out.Groups = append(out.Groups, GroupResult{Key: b.key, Value: agg.Reduce(b.values), Size: b.size})
	}
	return out, nil
}

func (s *Store) aggFailure(out *Aggregation, err error) (*Aggregation, error) {
	s.log.Warn().Err(err).Str("dataset", out.Dataset).Str("group_by", out.GroupBy).Str("column", out.Column).Str("func", out.Func).Msg("aggregation failed")
	return out, err
}

func onlyNumber(t detect.ColumnType) bool { return t == detect.Number }

func numberOrDate(t detect.ColumnType) bool { return t == detect.Number || t == detect.Date }

func amounts(values []Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Kind == ValueAmount {
			out = append(out, v.Amount)
		}
	}
	return out
}

func dates(values []Value) []civil.Date {
	out := make([]civil.Date, 0, len(values))
	for _, v := range values {
		if v.Kind == ValueDate {
			out = append(out, v.Date)
		}
	}
	return out
}

// statFunc adapts a montanaflynn/stats reducer. Empty input or an undefined
// result (std of one value) is absent.
func statFunc(f func(stats.Float64Data) (float64, error)) func([]Value) Value {
	return func(values []Value) Value {
		x, err := f(amounts(values))
		if err != nil || math.IsNaN(x) {
			return Absent()
		}
		return AmountOf(x)
	}
}

func extremum(f func(stats.Float64Data) (float64, error), later bool) func([]Value) Value {
	numeric := statFunc(f)
	return func(values []Value) Value {
		ds := dates(values)
		if len(ds) == 0 {
			return numeric(values)
		}
		best := ds[0]
		for _, d := range ds[1:] {
			if (later && d.After(best)) || (!later && d.Before(best)) {
				best = d
			}
		}
		return DateOf(best)
	}
}

func sumValues(values []Value) Value {
	total := decimal.Zero
	for _, f := range amounts(values) {
		total = total.Add(decimal.NewFromFloat(f))
	}
	return AmountOf(total.InexactFloat64())
}

func countValues(values []Value) Value { return AmountOf(float64(len(values))) }

func defaultAggregators() map[string]Aggregator {
	return map[string]Aggregator{
		"sum":    {Supports: onlyNumber, Reduce: sumValues},
		"count":  {Reduce: countValues},
		"mean":   {Supports: onlyNumber, Reduce: statFunc(stats.Mean)},
		"median": {Supports: onlyNumber, Reduce: statFunc(stats.Median)},
		"std":    {Supports: onlyNumber, Reduce: statFunc(stats.StandardDeviationSample)},
		"min":    {Supports: numberOrDate, Reduce: extremum(stats.Min, false)},
		"max":    {Supports: numberOrDate, Reduce: extremum(stats.Max, true)},
	}
}
