package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow marks a line with the wrong field count or an
	// unparseable numeric field.
	ErrMalformedRow = errors.New("malformed row")

	// ErrKeyFormat marks a record whose region or date cannot form a Key.
	ErrKeyFormat = errors.New("invalid key format")

	// ErrMultiValuedGroup marks a co-grouped key carrying more than one
	// aggregate from the same source.
	ErrMultiValuedGroup = errors.New("multiple values for one key")
)

// RowError attaches the dataset name and 1-based input line number to a
// parse or key error.
type RowError struct {
	Dataset string
	Line    int
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Dataset, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
