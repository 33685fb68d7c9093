package store

import (
	"encoding/json"
	"strconv"

	"cloud.google.com/go/civil"

	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

// ValueKind tags what a stored cell holds.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueRaw
	ValueAmount
	ValueDate
)

// Value is a stored cell: a canonical amount or date for number and date
// columns, the untouched raw cell otherwise.
type Value struct {
	Kind   ValueKind
	Raw    normalize.RawValue
	Amount float64
	Date   civil.Date
}

// Absent is the empty cell.
func Absent() Value { return Value{} }

// RawOf keeps a source cell as-is.
func RawOf(r normalize.RawValue) Value {
	if r.IsAbsent() {
		return Value{}
	}
	return Value{Kind: ValueRaw, Raw: r}
}

// AmountOf wraps a canonical amount.
func AmountOf(f float64) Value { return Value{Kind: ValueAmount, Amount: f} }

// DateOf wraps a canonical date.
func DateOf(d civil.Date) Value { return Value{Kind: ValueDate, Date: d} }

// IsAbsent reports whether the cell has no value.
func (v Value) IsAbsent() bool { return v.Kind == ValueAbsent }

func (v Value) String() string {
	switch v.Kind {
	case ValueRaw:
		return v.Raw.Text
	case ValueAmount:
		return strconv.FormatFloat(v.Amount, 'f', -1, 64)
	case ValueDate:
		return v.Date.String()
	default:
		return ""
	}
}

func (v Value) native() any {
	switch v.Kind {
	case ValueRaw:
		return v.Raw.Text
	case ValueAmount:
		return v.Amount
	case ValueDate:
		return v.Date.String()
	default:
		return nil
	}
}

// MarshalJSON writes amounts as numbers, dates as YYYY-MM-DD and absent as null.
func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.native()) }

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (any, error) { return v.native(), nil }
