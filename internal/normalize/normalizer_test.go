package normalize

import (
	"strconv"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount_Formats(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{"(2,500.00)", -2500},
		{"1234.56-", -1234.56},
		{"1.5M", 1_500_000},
		{"2.3K", 2300},
		{"  42 ", 42},
		{"-17.25", -17.25},
		{"USD 1,000", 1000},
		{"₹1,23,456", 123456},
		{"3b", 3e9},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		require.True(t, ok, "expected %q to parse", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "ParseAmount(%q)", tc.in)
	}
}

func TestParseAmount_Absent(t *testing.T) {
	for _, in := range []string{"", "   ", "N/A", "-", "abc", "1.2.3", "KM", "--5"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, "expected %q to be absent", in)
	}
}

func TestParseAmount_ParenthesizedWithCurrencyStaysPositive(t *testing.T) {
	// The negative-parentheses rule only matches digits and separators.
	got, ok := ParseAmount("($1,234.56)")
	require.True(t, ok)
	assert.Equal(t, 1234.56, got)
}

func TestParseAmount_RoundTripsCanonicalText(t *testing.T) {
	for _, in := range []string{"$1,234.56", "(2,500.00)", "1234.56-", "1.5M", "2.3K", "0.001", "-98765.4321"} {
		v, ok := ParseAmount(in)
		require.True(t, ok)
		again, ok := ParseAmount(strconv.FormatFloat(v, 'f', -1, 64))
		require.True(t, ok)
		assert.Equal(t, v, again, "round trip of %q", in)
	}
}

func TestParseAmount_LocalePolicies(t *testing.T) {
	compat, ok := ParseAmount("€1.234,56")
	require.True(t, ok)
	assert.InDelta(t, 1.23456, compat, 1e-12, "compat keeps the separator-stripping behavior")

	auto := Normalizer{Locale: LocaleAuto}
	cases := map[string]float64{
		"€1.234,56":  1234.56,
		"1,234.56":   1234.56,
		"12,5":       12.5,
		"1,234":      1234,
		"1.234.567":  1234567,
		"₹1,23,456":  123456,
		"(1.234,50)": -1234.5,
		"12,5K":      12500,
		"1 234,56":   1234.56,
	}
	for in, want := range cases {
		got, ok := auto.ParseAmount(in)
		require.True(t, ok, "auto %q", in)
		assert.InDelta(t, want, got, 1e-9, "auto %q", in)
	}

	comma := Normalizer{Locale: LocaleDecimalComma}
	got, ok := comma.ParseAmount("1.234,56")
	require.True(t, ok)
	assert.InDelta(t, 1234.56, got, 1e-9)
	got, ok = comma.ParseAmount("1.234")
	require.True(t, ok)
	assert.Equal(t, 1234.0, got)
}

func TestParseLocale(t *testing.T) {
	l, err := ParseLocale("AUTO")
	require.NoError(t, err)
	assert.Equal(t, LocaleAuto, l)
	l, err = ParseLocale("")
	require.NoError(t, err)
	assert.Equal(t, LocaleCompat, l)
	_, err = ParseLocale("klingon")
	assert.Error(t, err)

	o, err := ParseDateOrder("day-first")
	require.NoError(t, err)
	assert.Equal(t, DayFirst, o)
	_, err = ParseDateOrder("sideways")
	assert.Error(t, err)
}

func date(y int, m time.Month, d int) civil.Date { return civil.Date{Year: y, Month: m, Day: d} }

func TestParseDate_Serial(t *testing.T) {
	got, ok := ParseDate("44927")
	require.True(t, ok)
	assert.Equal(t, SerialEpoch.AddDays(44927), got)
	assert.Equal(t, date(2023, time.January, 1), got)
	assert.Equal(t, 44927, SerialOf(got))

	// Only bare five-digit numerals are serials.
	_, ok = ParseDate("4492")
	assert.False(t, ok)
	_, ok = ParseDate("449270")
	assert.False(t, ok)
}

func TestParseDate_Quarters(t *testing.T) {
	cases := map[string]civil.Date{
		"Q1 2024": date(2024, time.January, 1),
		"Q3-24":   date(2024, time.July, 1),
		"q2 2023": date(2023, time.April, 1),
		"Q42025":  date(2025, time.October, 1),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDate("Q5 2024")
	assert.False(t, ok)
}

func TestParseDate_Layouts(t *testing.T) {
	cases := map[string]civil.Date{
		"2023-12-31":    date(2023, time.December, 31),
		"2023-1-5":      date(2023, time.January, 5),
		"12/31/2023":    date(2023, time.December, 31),
		"31/12/2023":    date(2023, time.December, 31),
		"05-Jan-2023":   date(2023, time.January, 5),
		"5-jan-2023":    date(2023, time.January, 5),
		"Dec 2023":      date(2023, time.December, 1),
		"December 2023": date(2023, time.December, 1),
		"31-12-2023":    date(2023, time.December, 31),
		"31.12.2023":    date(2023, time.December, 31),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "N/A", "Dec-23", "2023-02-30", "13/13/2023", "yesterday"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "expected %q to be absent", in)
	}
}

func TestParseDate_AmbiguousOrderFollowsPolicy(t *testing.T) {
	got, ok := ParseDate("03/04/2023")
	require.True(t, ok)
	assert.Equal(t, date(2023, time.March, 4), got)

	got, ok = Normalizer{DateOrder: DayFirst}.ParseDate("03/04/2023")
	require.True(t, ok)
	assert.Equal(t, date(2023, time.April, 3), got)
}

func TestNormalizer_RawVariants(t *testing.T) {
	var n Normalizer

	_, ok := n.Amount(Absent())
	assert.False(t, ok)
	_, ok = n.Date(Absent())
	assert.False(t, ok)
	assert.True(t, Text("   ").IsAbsent())

	amt, ok := n.Amount(Number("1234.5"))
	require.True(t, ok)
	assert.Equal(t, 1234.5, amt)

	amt, ok = n.Amount(Text("$99.95"))
	require.True(t, ok)
	assert.Equal(t, 99.95, amt)

	d, ok := n.Date(DateLiteral("2024-03-01T00:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, date(2024, time.March, 1), d)

	d, ok = n.Date(Number("45292"))
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 1), d)
}
