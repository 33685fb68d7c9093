package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDataset is returned for names that were never registered.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrNoIndex is returned when a dataset has no index of the requested kind.
	ErrNoIndex = errors.New("no index")
	// ErrInvalidColumn is returned for column names missing from a dataset's schema.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrUnsupportedAggregation is returned for unknown aggregation functions
	// or functions that cannot apply to the column's type.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")
	// ErrInvalidDataset is returned when a registration violates the schema invariants.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// SchemaError reports a reference to a dataset, index or column that does not exist.
type SchemaError struct {
	Dataset string
	Column  string
	Err     error
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%v: dataset %q column %q", e.Err, e.Dataset, e.Column)
	}
	return fmt.Sprintf("%v: dataset %q", e.Err, e.Dataset)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ConfigError reports a request the store cannot honor, such as an unknown
// aggregation function.
type ConfigError struct {
	Func   string
	Column string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%v: %q over column %q", e.Err, e.Func, e.Column)
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Func)
}

func (e *ConfigError) Unwrap() error { return e.Err }
