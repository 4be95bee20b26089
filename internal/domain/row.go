package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Header is the first line of every output shard.
const Header = "UF,ANO,MES,CHUVA,DENGUE"

// OutputDelimiter separates fields in an output row.
const OutputDelimiter = ","

// RawLine is one line of an input file with its 1-based line number.
type RawLine struct {
	Number int
	Text   string
}

// OutputRow is one joined region-month.
type OutputRow struct {
	Key      Key
	Rainfall float64 // summed millimeters, rounded to one decimal
	Cases    float64 // summed case count
}

// Fields returns the five output columns in header order.
func (r OutputRow) Fields() []string {
	return []string{
		r.Key.Region,
		r.Key.Year,
		r.Key.Month,
		FormatFloat(r.Rainfall),
		FormatFloat(r.Cases),
	}
}

// Format joins the output columns with delim.
func (r OutputRow) Format(delim string) string {
	return strings.Join(r.Fields(), delim)
}

// Output is everything a loader receives for one run.
type Output struct {
	RunID       string
	ProcessedAt time.Time
	Header      string
	Rows        []OutputRow
}

// FormatFloat renders v with the shortest digits that round-trip, keeping at
// least one fractional digit ("8.0", "5.4"). Magnitudes below 1e-4 or at or
// above 1e16 use exponent form ("1e+16").
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Round1 rounds v to one decimal place. Exact ties round half to even, so
// 2.25 becomes 2.2 while 5.45 (stored as 5.4500000000000002) becomes 5.5.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
