package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RainfallDelimiter separates fields in the rainfall file.
const RainfallDelimiter = ","

const rainfallFieldCount = 3

// RainfallRecord is one parsed rainfall line: date, millimeters, state.
type RainfallRecord struct {
	Date        string
	Millimeters string
	State       string
}

// ParseRainfall splits a comma-delimited line into its three positional
// fields.
func ParseRainfall(line string) (RainfallRecord, error) {
	f := SplitFields(line, RainfallDelimiter)
	if len(f) != rainfallFieldCount {
		return RainfallRecord{}, fmt.Errorf("%w: expected %d fields, got %d",
			ErrMalformedRow, rainfallFieldCount, len(f))
	}
	return RainfallRecord{Date: f[0], Millimeters: f[1], State: f[2]}, nil
}

// Key derives the join key from the state and reading date.
func (r RainfallRecord) Key() (Key, error) {
	return NewKey(r.State, r.Date)
}

// Amount returns the clamped millimeter reading.
func (r RainfallRecord) Amount() (float64, error) {
	return Millimeters(r.Millimeters)
}

// Millimeters parses a rainfall reading and clamps negatives to zero.
// Unlike CaseCount there is no digit guard: a non-numeric reading is an
// error.
func Millimeters(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: mm_chuva %q: %v", ErrMalformedRow, raw, err)
	}
	if v < 0 {
		return 0, nil
	}
	return v, nil
}
