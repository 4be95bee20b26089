package domain

import (
	"fmt"
	"strings"
)

// Key identifies one region-month bucket shared by both datasets.
type Key struct {
	Region string
	Year   string // four digits, e.g. "2014"
	Month  string // two digits, e.g. "02"
}

// NewKey builds a Key from a region code and a date beginning with
// "YYYY-MM".
func NewKey(region, date string) (Key, error) {
	if region == "" {
		return Key{}, fmt.Errorf("%w: empty region", ErrKeyFormat)
	}
	year, month, err := ParseYearMonth(date)
	if err != nil {
		return Key{}, err
	}
	return Key{Region: region, Year: year, Month: month}, nil
}

// String renders the key as REGION-YEAR-MONTH. It is a display form only;
// nothing parses it back.
func (k Key) String() string {
	return k.Region + "-" + k.Year + "-" + k.Month
}

// Less orders keys by region, then year, then month.
func (k Key) Less(other Key) bool {
	if k.Region != other.Region {
		return k.Region < other.Region
	}
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// ParseYearMonth extracts the year and month from the first two
// dash-separated segments of a date such as "2014-02-21". The year must be
// four digits and the month two digits in 01..12. Anything after the month
// segment is ignored.
func ParseYearMonth(date string) (year, month string, err error) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: date %q has no month segment", ErrKeyFormat, date)
	}
	year, month = parts[0], parts[1]
	if len(year) != 4 || !allDigits(year) {
		return "", "", fmt.Errorf("%w: date %q has invalid year %q", ErrKeyFormat, date, year)
	}
	if len(month) != 2 || !allDigits(month) || month < "01" || month > "12" {
		return "", "", fmt.Errorf("%w: date %q has invalid month %q", ErrKeyFormat, date, month)
	}
	return year, month, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
