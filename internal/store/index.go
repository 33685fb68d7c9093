package store

import (
	"cmp"
	"slices"
	"sort"

	"cloud.google.com/go/civil"
)

// RangeIndex orders one column's canonical values for inclusive range
// lookups. Rows whose value is absent are not indexed. Equal keys keep row
// order.
type RangeIndex[K any] struct {
	Column  string
	keys    []K
	rows    []int
	compare func(a, b K) int
}

type indexEntry[K any] struct {
	key K
	row int
}

func buildRangeIndex[K any](column string, col int, rows []Row, key func(Value) (K, bool), compare func(a, b K) int) *RangeIndex[K] {
	entries := make([]indexEntry[K], 0, len(rows))
	for i, r := range rows {
		if k, ok := key(r[col]); ok {
			entries = append(entries, indexEntry[K]{key: k, row: i})
		}
	}
	slices.SortStableFunc(entries, func(a, b indexEntry[K]) int { return compare(a.key, b.key) })
	ix := &RangeIndex[K]{
		Column:  column,
		keys:    make([]K, len(entries)),
		rows:    make([]int, len(entries)),
		compare: compare,
	}
	for i, e := range entries {
		ix.keys[i] = e.key
		ix.rows[i] = e.row
	}
	return ix
}

// Len is the number of indexed rows.
func (ix *RangeIndex[K]) Len() int { return len(ix.keys) }

// Range returns the positions of rows with lo <= key <= hi in ascending key
// order. It costs O(log n + matches).
func (ix *RangeIndex[K]) Range(lo, hi K) []int {
	if ix.compare(lo, hi) > 0 {
		return nil
	}
	start := sort.Search(len(ix.keys), func(i int) bool { return ix.compare(ix.keys[i], lo) >= 0 })
	end := sort.Search(len(ix.keys), func(i int) bool { return ix.compare(ix.keys[i], hi) > 0 })
	if start >= end {
		return nil
	}
	return slices.Clone(ix.rows[start:end])
}

// Bounds returns the smallest and largest indexed keys.
func (ix *RangeIndex[K]) Bounds() (lo, hi K, ok bool) {
	if len(ix.keys) == 0 {
		return lo, hi, false
	}
	return ix.keys[0], ix.keys[len(ix.keys)-1], true
}

// Key returns the i-th key in index order.
func (ix *RangeIndex[K]) Key(i int) K { return ix.keys[i] }

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func dateKey(v Value) (civil.Date, bool) {
	if v.Kind != ValueDate {
		return civil.Date{}, false
	}
	return v.Date, true
}

func amountKey(v Value) (float64, bool) {
	if v.Kind != ValueAmount {
		return 0, false
	}
	return v.Amount, true
}

func newDateIndex(column string, col int, rows []Row) *RangeIndex[civil.Date] {
	return buildRangeIndex(column, col, rows, dateKey, compareDates)
}

func newAmountIndex(column string, col int, rows []Row) *RangeIndex[float64] {
	return buildRangeIndex(column, col, rows, amountKey, cmp.Compare[float64])
}
