package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IncidenceDelimiter separates fields in the dengue notifications file.
const IncidenceDelimiter = "|"

// IncidenceColumns names the positional fields of a dengue notification line.
var IncidenceColumns = []string{
	"id",
	"data_iniSE",
	"casos",
	"ibge_code",
	"cidade",
	"uf",
	"cep",
	"latitude",
	"longitude",
}

// digitRe decides whether a casos value is numeric at all.
var digitRe = regexp.MustCompile(`\d`)

// IncidenceRecord is one parsed dengue notification line. All fields keep
// their raw text.
type IncidenceRecord struct {
	ID         string
	Date       string // data_iniSE
	Cases      string // casos
	IBGECode   string
	City       string
	State      string // uf
	PostalCode string
	Latitude   string
	Longitude  string
}

// SplitFields splits a raw line on delim. Quoting is not supported.
func SplitFields(line, delim string) []string {
	return strings.Split(line, delim)
}

// ParseIncidence pairs the fields of a pipe-delimited line with
// IncidenceColumns.
func ParseIncidence(line string) (IncidenceRecord, error) {
	f := SplitFields(line, IncidenceDelimiter)
	if len(f) != len(IncidenceColumns) {
		return IncidenceRecord{}, fmt.Errorf("%w: expected %d fields, got %d",
			ErrMalformedRow, len(IncidenceColumns), len(f))
	}
	return IncidenceRecord{
		ID:         f[0],
		Date:       f[1],
		Cases:      f[2],
		IBGECode:   f[3],
		City:       f[4],
		State:      f[5],
		PostalCode: f[6],
		Latitude:   f[7],
		Longitude:  f[8],
	}, nil
}

// Fields returns the record as a column name to raw value mapping.
func (r IncidenceRecord) Fields() map[string]string {
	values := []string{r.ID, r.Date, r.Cases, r.IBGECode, r.City, r.State, r.PostalCode, r.Latitude, r.Longitude}
	m := make(map[string]string, len(IncidenceColumns))
	for i, col := range IncidenceColumns {
		m[col] = values[i]
	}
	return m
}

// YearMonth returns the "YYYY-MM" prefix of the notification date.
func (r IncidenceRecord) YearMonth() (string, error) {
	year, month, err := ParseYearMonth(r.Date)
	if err != nil {
		return "", err
	}
	return year + "-" + month, nil
}

// Key derives the join key from the state and notification date.
func (r IncidenceRecord) Key() (Key, error) {
	return NewKey(r.State, r.Date)
}

// CaseCount returns the numeric value of the casos field.
func (r IncidenceRecord) CaseCount() (float64, error) {
	return CaseCount(r.Cases)
}

// CaseCount converts a raw casos value. A value containing no digit at all
// (including the empty string) counts as zero; anything with a digit must
// parse as a float.
func CaseCount(raw string) (float64, error) {
	if !digitRe.MatchString(raw) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: casos %q: %v", ErrMalformedRow, raw, err)
	}
	return v, nil
}
