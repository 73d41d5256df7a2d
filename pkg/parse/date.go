// Package parse converts the textual fields of an import row into typed values.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is a user-selectable date ordering.
type DateFormat string

const (
	DateUS     DateFormat = "us"     // mm/dd/yyyy
	DateUK     DateFormat = "uk"     // dd/mm/yyyy
	DateCE     DateFormat = "ce"     // dd.mm.yyyy
	DateISO    DateFormat = "iso"    // yyyy-mm-dd
	DateLocale DateFormat = "locale" // treated as us
)

// ParseDateFormat parses a date format name.
func ParseDateFormat(s string) (DateFormat, error) {
	switch f := DateFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case DateUS, DateUK, DateCE, DateISO, DateLocale:
		return f, nil
	case "":
		return DateUS, nil
	}
	return "", fmt.Errorf("unknown date format %q (expected us, uk, ce, iso or locale)", s)
}

// Layout returns the time layout used to format dates.
func (f DateFormat) Layout() string {
	switch f {
	case DateUK:
		return "02/01/2006"
	case DateCE:
		return "02.01.2006"
	case DateISO:
		return "2006-01-02"
	}
	return "01/02/2006"
}

// Format renders t in this format.
func (f DateFormat) Format(t time.Time) string {
	return t.Format(f.Layout())
}

// Scan parses a date written in this format. Any of "/-. " separate the
// parts, the year may be omitted (the year of now is used) or written with
// two digits (taken as the nearest year within 50 years of now).
func (f DateFormat) Scan(s string, now time.Time) (time.Time, bool) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '/' || r == '-' || r == '.' || r == ' '
	})
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, false
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var day, month int
	year, yearText := -1, ""
	switch f {
	case DateISO:
		if len(nums) == 3 {
			year, month, day = nums[0], nums[1], nums[2]
			yearText = parts[0]
		} else {
			month, day = nums[0], nums[1]
		}
	case DateUK, DateCE:
		day, month = nums[0], nums[1]
	default:
		month, day = nums[0], nums[1]
	}
	if f != DateISO && len(nums) == 3 {
		year, yearText = nums[2], parts[2]
	}

	switch {
	case year < 0:
		year = now.Year()
	case len(yearText) <= 2:
		year = windowYear(year, now.Year())
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// Valid reports whether s scans as a date in this format.
func (f DateFormat) Valid(s string, now time.Time) bool {
	_, ok := f.Scan(s, now)
	return ok
}

func windowYear(yy, current int) int {
	century := (current + 50 - yy) / 100 * 100
	return century + yy
}
