package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/finnorm-cli/internal/detect"
	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

func day(y int, m time.Month, d int) civil.Date { return civil.Date{Year: y, Month: m, Day: d} }

func raw(s string) Value { return RawOf(normalize.Text(s)) }

// ledger builds a small statement with two date and two amount columns.
func ledger(t *testing.T, s *Store) *Dataset {
	t.Helper()
	columns := []string{"Booked", "Memo", "Amount", "Valued", "Balance"}
	types := map[string]detect.ColumnType{
		"Booked":  detect.Date,
		"Memo":    detect.Text,
		"Amount":  detect.Number,
		"Valued":  detect.Date,
		"Balance": detect.Number,
	}
	rows := []Row{
		{DateOf(day(2023, time.March, 5)), raw("rent"), AmountOf(-1200), DateOf(day(2023, time.March, 6)), AmountOf(800)},
		{DateOf(day(2023, time.January, 15)), raw("salary"), AmountOf(3000), DateOf(day(2023, time.January, 15)), AmountOf(3000)},
		{Absent(), raw("pending"), AmountOf(50), Absent(), Absent()},
		{DateOf(day(2023, time.December, 31)), raw("bonus"), Absent(), DateOf(day(2024, time.January, 2)), AmountOf(5000)},
		{DateOf(day(2023, time.March, 5)), raw("coffee"), AmountOf(-4.5), DateOf(day(2023, time.March, 5)), AmountOf(795.5)},
		{DateOf(day(2022, time.June, 1)), raw("old"), AmountOf(10), Absent(), AmountOf(0)},
	}
	ds, err := s.AddDataset("ledger", columns, rows, types)
	require.NoError(t, err)
	return ds
}

func memos(res *Result) []string {
	out := make([]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		out = append(out, r[1].String())
	}
	return out
}

func TestAddDataset_BuildsIndexesForEveryTypedColumn(t *testing.T) {
	s := New()
	ds := ledger(t, s)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, 6, ds.Len())

	info, err := s.Indexes("ledger")
	require.NoError(t, err)
	assert.Equal(t, []string{"Booked", "Valued"}, info.DateColumns)
	assert.Equal(t, []string{"Amount", "Balance"}, info.AmountColumns)
	assert.Equal(t, "Booked", info.DefaultDate)
	assert.Equal(t, "Amount", info.DefaultAmount)
}

func TestAddDataset_RejectsBrokenSchema(t *testing.T) {
	s := New()
	_, err := s.AddDataset("x", []string{"a", "b"}, nil, map[string]detect.ColumnType{"a": detect.Text})
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, err = s.AddDataset("x", []string{"a"}, nil, map[string]detect.ColumnType{"a": detect.Text, "z": detect.Date})
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, err = s.AddDataset("x", []string{"a", "a"}, nil, map[string]detect.ColumnType{"a": detect.Text})
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, err = s.AddDataset("x", []string{"a"}, []Row{{raw("1"), raw("2")}}, map[string]detect.ColumnType{"a": detect.Text})
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, err = s.AddDataset("", nil, nil, map[string]detect.ColumnType{})
	assert.ErrorIs(t, err, ErrInvalidDataset)
	assert.Empty(t, s.Datasets())
}

func TestQueryByDateRange_InclusiveAndOrdered(t *testing.T) {
	s := New()
	ledger(t, s)

	res, err := s.QueryByDateRange("ledger", day(2023, time.January, 15), day(2023, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, "Booked", res.Column)
	assert.Equal(t, []string{"salary", "rent", "coffee", "bonus"}, memos(res))
	for _, r := range res.Rows {
		d := r[0].Date
		assert.False(t, d.Before(day(2023, time.January, 15)))
		assert.False(t, d.After(day(2023, time.December, 31)))
	}

	res, err = s.QueryByDateRange("ledger", day(2023, time.March, 5), day(2023, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"rent", "coffee"}, memos(res))

	res, err = s.QueryByDateRange("ledger", day(2024, time.January, 1), day(2023, time.January, 1))
	require.NoError(t, err)
	assert.Zero(t, res.Len())
}

func TestQueryByDateRange_PartitionReconstructsIndex(t *testing.T) {
	s := New()
	ledger(t, s)

	cuts := []civil.Date{
		day(1900, time.January, 1),
		day(2022, time.December, 31),
		day(2023, time.March, 4),
		day(2023, time.March, 5),
		day(2100, time.January, 1),
	}
	var all []string
	for i := 0; i+1 < len(cuts); i++ {
		lo := cuts[i]
		if i > 0 {
			lo = cuts[i].AddDays(1)
		}
		res, err := s.QueryByDateRange("ledger", lo, cuts[i+1])
		require.NoError(t, err)
		all = append(all, memos(res)...)
	}
	// "pending" has no booking date and is not indexed.
	assert.Equal(t, []string{"old", "salary", "rent", "coffee", "bonus"}, all)
}

func TestQueryByAmountRange(t *testing.T) {
	s := New()
	ledger(t, s)

	res, err := s.QueryByAmountRange("ledger", -5, 3000)
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "old", "pending", "salary"}, memos(res))

	res, err = s.QueryByAmountRangeOn("ledger", "Balance", 795.5, 800)
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "rent"}, memos(res))
}

func TestQueryByDateRangeOn_SecondaryColumn(t *testing.T) {
	s := New()
	ledger(t, s)
	res, err := s.QueryByDateRangeOn("ledger", "Valued", day(2024, time.January, 1), day(2024, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"bonus"}, memos(res))
}

func TestQuery_Diagnostics(t *testing.T) {
	var buf bytes.Buffer
	s := New(WithLogger(zerolog.New(&buf)))
	ledger(t, s)

	res, err := s.QueryByDateRange("missing", day(2023, 1, 1), day(2023, 12, 31))
	require.NotNil(t, res)
	assert.Zero(t, res.Len())
	assert.ErrorIs(t, err, ErrUnknownDataset)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "missing", se.Dataset)

	res, err = s.QueryByDateRangeOn("ledger", "Memo", day(2023, 1, 1), day(2023, 12, 31))
	assert.Zero(t, res.Len())
	assert.ErrorIs(t, err, ErrNoIndex)

	_, err = s.QueryByAmountRangeOn("ledger", "Nope", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidColumn)

	_, err = s.AddDataset("names", []string{"Name"}, []Row{{raw("a")}}, map[string]detect.ColumnType{"Name": detect.Text})
	require.NoError(t, err)
	res, err = s.QueryByAmountRange("names", 0, 10)
	assert.Zero(t, res.Len())
	assert.ErrorIs(t, err, ErrNoIndex)

	assert.Contains(t, buf.String(), "query returned no rows")
}

func TestAddDataset_ReplacesWithoutMerge(t *testing.T) {
	s := New()
	first := ledger(t, s)
	second, err := s.AddDataset("ledger", []string{"Memo"}, []Row{{raw("only")}}, map[string]detect.ColumnType{"Memo": detect.Text})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := s.Dataset("ledger")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	_, err = s.QueryByDateRange("ledger", day(2000, 1, 1), day(2100, 1, 1))
	assert.ErrorIs(t, err, ErrNoIndex)

	assert.True(t, s.Remove("ledger"))
	assert.False(t, s.Remove("ledger"))
	_, err = s.Dataset("ledger")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestRangeIndex_ExcludesAbsentAndWrongKinds(t *testing.T) {
	rows := []Row{{AmountOf(3)}, {Absent()}, {raw("N/A")}, {AmountOf(1)}, {AmountOf(3)}}
	ix := newAmountIndex("a", 0, rows)
	assert.Equal(t, 3, ix.Len())
	lo, hi, ok := ix.Bounds()
	require.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 3.0, hi)
	assert.Equal(t, []int{3, 0, 4}, ix.Range(0, 10))
	assert.Equal(t, []int{0, 4}, ix.Range(3, 3))
	assert.Nil(t, ix.Range(4, 10))

	empty := newDateIndex("d", 0, []Row{{Absent()}})
	_, _, ok = empty.Bounds()
	assert.False(t, ok)
}

func TestValue_Marshal(t *testing.T) {
	row := Row{AmountOf(12.5), DateOf(day(2024, time.February, 29)), raw("x"), Absent()}
	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `[12.5, "2024-02-29", "x", null]`, string(b))
}
