// Package normalize converts free-form amount and date strings found in
// financial exports into canonical values.
//
// Every function here is pure. A value that cannot be normalized is reported
// through the ok result and never as an error.
package normalize

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// Locale selects how decimal and grouping separators are read in amounts.
type Locale int

const (
	// LocaleCompat strips every separator and reads '.' as the decimal mark.
	// "1.234,56" therefore becomes 1.23456; kept for compatibility with
	// existing exports normalized by earlier tooling.
	LocaleCompat Locale = iota
	// LocaleAuto decides the decimal mark per value from separator positions.
	LocaleAuto
	// LocaleDecimalComma reads ',' as the decimal mark and '.' or spaces as grouping.
	LocaleDecimalComma
)

func (l Locale) String() string {
	switch l {
	case LocaleAuto:
		return "auto"
	case LocaleDecimalComma:
		return "decimal-comma"
	default:
		return "compat"
	}
}

// ParseLocale maps a config or flag value to a Locale.
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compat", "default":
		return LocaleCompat, nil
	case "auto":
		return LocaleAuto, nil
	case "decimal-comma", "comma", "eu":
		return LocaleDecimalComma, nil
	default:
		return LocaleCompat, fmt.Errorf("unsupported locale: %s (use compat|auto|decimal-comma)", s)
	}
}

// DateOrder decides how ambiguous numeric dates such as 03/04/2023 resolve.
type DateOrder int

const (
	// MonthFirst tries MM/DD/YYYY before DD/MM/YYYY.
	MonthFirst DateOrder = iota
	// DayFirst tries DD/MM/YYYY before MM/DD/YYYY.
	DayFirst
)

func (o DateOrder) String() string {
	if o == DayFirst {
		return "day-first"
	}
	return "month-first"
}

// ParseDateOrder maps a config or flag value to a DateOrder.
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month-first", "us", "mdy":
		return MonthFirst, nil
	case "day-first", "dmy":
		return DayFirst, nil
	default:
		return MonthFirst, fmt.Errorf("unsupported date order: %s (use month-first|day-first)", s)
	}
}

// Normalizer holds the locale policy applied to amounts and dates.
// The zero value reproduces the default rules.
type Normalizer struct {
	Locale    Locale
	DateOrder DateOrder
}

// Amount normalizes a raw cell to a canonical amount.
func (n Normalizer) Amount(v RawValue) (float64, bool) {
	switch v.Kind {
	case RawAbsent:
		return 0, false
	case RawNumber:
		if f, ok := parsePlainFloat(v.Text); ok {
			return f, true
		}
	}
	return n.ParseAmount(v.Text)
}

// Date normalizes a raw cell to a canonical date.
func (n Normalizer) Date(v RawValue) (civil.Date, bool) {
	switch v.Kind {
	case RawAbsent:
		return civil.Date{}, false
	case RawDate:
		if d, ok := parseDateLiteral(v.Text); ok {
			return d, true
		}
	}
	return n.ParseDate(v.Text)
}

// ParseAmount applies the default rules to s.
func ParseAmount(s string) (float64, bool) { return Normalizer{}.ParseAmount(s) }

// ParseDate applies the default rules to s.
func ParseDate(s string) (civil.Date, bool) { return Normalizer{}.ParseDate(s) }
