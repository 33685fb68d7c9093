// Package detect classifies a column's semantic type from its raw values.
package detect

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

// ColumnType is the semantic type assigned to a column.
type ColumnType string

const (
	Number ColumnType = "number"
	Date   ColumnType = "date"
	Text   ColumnType = "text"
)

// ParseColumnType validates a type name.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(strings.ToLower(strings.TrimSpace(s))) {
	case Number:
		return Number, nil
	case Date:
		return Date, nil
	case Text:
		return Text, nil
	default:
		return "", fmt.Errorf("unknown column type: %s", s)
	}
}

// DefaultThreshold is the minimum confidence for a number or date classification.
const DefaultThreshold = 0.5

// Classification is the detected type of a column and the share of its
// non-absent values that support it.
type Classification struct {
	Type       ColumnType `json:"type" yaml:"type"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
}

// Stats carries the raw counts behind a Classification.
type Stats struct {
	NonAbsent  int
	Amounts    int
	Dates      int
	Classified Classification
}

// Detector classifies columns using a configured normalizer.
type Detector struct {
	Normalizer normalize.Normalizer
	Threshold  float64
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold sets the minimum confidence. Values outside (0,1] are ignored.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 && t <= 1 {
			d.Threshold = t
		}
	}
}

// WithNormalizer sets the locale policy used while probing values.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(d *Detector) { d.Normalizer = n }
}

// New returns a Detector with the default threshold.
func New(opts ...Option) *Detector {
	d := &Detector{Threshold: DefaultThreshold}
	for _, o := range opts {
		o(d)
	}
	return d
}

// DetectColumnType classifies values with the default detector.
func DetectColumnType(values []normalize.RawValue, opts ...Option) Classification {
	return New(opts...).Detect(values)
}

// Detect classifies values.
//
// Confidence for number and date is parsed/non-absent. The higher one wins
// if it reaches the threshold; equal confidences resolve to date. Otherwise
// the column is text with confidence 1 - best.
func (d *Detector) Detect(values []normalize.RawValue) Classification {
	return d.Analyze(values).Classified
}

// Analyze is Detect plus the counts it was derived from.
func (d *Detector) Analyze(values []normalize.RawValue) Stats {
	var st Stats
	for _, v := range values {
		if v.IsAbsent() {
			continue
		}
		st.NonAbsent++
		if _, ok := d.Normalizer.Amount(v); ok {
			st.Amounts++
		}
		if _, ok := d.Normalizer.Date(v); ok {
			st.Dates++
		}
	}
	var numConf, dateConf float64
	if st.NonAbsent > 0 {
		numConf = float64(st.Amounts) / float64(st.NonAbsent)
		dateConf = float64(st.Dates) / float64(st.NonAbsent)
	}
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	best, kind := numConf, Number
	if dateConf >= numConf {
		best, kind = dateConf, Date
	}
	if best < threshold {
		st.Classified = Classification{Type: Text, Confidence: 1 - best}
		return st
	}
	st.Classified = Classification{Type: kind, Confidence: best}
	return st
}
