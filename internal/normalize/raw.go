package normalize

import "strings"

// RawKind tags the origin of an untyped cell value.
type RawKind int

const (
	RawAbsent RawKind = iota
	RawText
	RawNumber
	RawDate
)

func (k RawKind) String() string {
	switch k {
	case RawText:
		return "text"
	case RawNumber:
		return "number"
	case RawDate:
		return "date"
	default:
		return "absent"
	}
}

// RawValue is a cell as read from a source sheet. Numeric and date cells are
// carried in their stringified form so every value goes through one code path.
type RawValue struct {
	Kind RawKind
	Text string
}

// Absent returns the empty cell.
func Absent() RawValue { return RawValue{} }

// Text wraps a textual cell. Empty or whitespace-only text is absent.
func Text(s string) RawValue {
	if strings.TrimSpace(s) == "" {
		return RawValue{}
	}
	return RawValue{Kind: RawText, Text: s}
}

// Number wraps a numeric literal cell in its stringified form.
func Number(s string) RawValue {
	if strings.TrimSpace(s) == "" {
		return RawValue{}
	}
	return RawValue{Kind: RawNumber, Text: s}
}

// DateLiteral wraps a date-typed cell in its stringified form.
func DateLiteral(s string) RawValue {
	if strings.TrimSpace(s) == "" {
		return RawValue{}
	}
	return RawValue{Kind: RawDate, Text: s}
}

// IsAbsent reports whether the cell carries no value.
func (v RawValue) IsAbsent() bool { return v.Kind == RawAbsent }

func (v RawValue) String() string { return v.Text }
