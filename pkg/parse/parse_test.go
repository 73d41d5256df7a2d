package parse

import (
	"errors"
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
)

var now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.Local)

func TestDateScan(t *testing.T) {
	tests := []struct {
		name   string
		format DateFormat
		input  string
		year   int
		month  time.Month
		day    int
		ok     bool
	}{
		{"us", DateUS, "01/02/2024", 2024, time.January, 2, true},
		{"us dashes", DateUS, "1-2-2024", 2024, time.January, 2, true},
		{"us no year", DateUS, "12/31", 2024, time.December, 31, true},
		{"us two digit year", DateUS, "03/04/99", 1999, time.March, 4, true},
		{"us two digit recent", DateUS, "03/04/24", 2024, time.March, 4, true},
		{"uk", DateUK, "01/02/2024", 2024, time.February, 1, true},
		{"ce", DateCE, "31.12.2023", 2023, time.December, 31, true},
		{"iso", DateISO, "2024-02-29", 2024, time.February, 29, true},
		{"locale is us", DateLocale, "02/01/2024", 2024, time.February, 1, true},
		{"feb 30", DateUS, "02/30/2024", 0, 0, 0, false},
		{"month 13", DateUS, "13/01/2024", 0, 0, 0, false},
		{"blank", DateUS, "", 0, 0, 0, false},
		{"text", DateUS, "yesterday", 0, 0, 0, false},
		{"too many parts", DateISO, "2024-01-01-01", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := tt.format.Scan(tt.input, now)
			if ok != tt.ok {
				t.Fatalf("Scan(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			if result.Year() != tt.year || result.Month() != tt.month || result.Day() != tt.day {
				t.Errorf("Scan(%q) = %s, expected %04d-%02d-%02d", tt.input, result.Format("2006-01-02"), tt.year, tt.month, tt.day)
			}
		})
	}
}

func TestDateFormatRoundTrip(t *testing.T) {
	for _, f := range []DateFormat{DateUS, DateUK, DateCE, DateISO} {
		formatted := f.Format(now)
		if !f.Valid(formatted, now) {
			t.Errorf("%s: Format() produced %q which does not scan", f, formatted)
		}
	}
}

func TestParseDateFormat(t *testing.T) {
	if f, err := ParseDateFormat(""); err != nil || f != DateUS {
		t.Errorf("ParseDateFormat(\"\") = %q, %v; expected us", f, err)
	}
	if f, err := ParseDateFormat("ISO"); err != nil || f != DateISO {
		t.Errorf("ParseDateFormat(ISO) = %q, %v; expected iso", f, err)
	}
	if _, err := ParseDateFormat("julian"); err == nil {
		t.Error("ParseDateFormat(julian) expected an error")
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1", true},
		{"T", true},
		{"true", true},
		{"Yes", true},
		{"x", true},
		{" y ", true},
		{"0", false},
		{"no", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		if result := Bool(tt.input); result != tt.expected {
			t.Errorf("Bool(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestDiscountTokens(t *testing.T) {
	typeTests := map[string]ledger.DiscountType{
		"":        ledger.DiscountPercent,
		"%":       ledger.DiscountPercent,
		"percent": ledger.DiscountPercent,
		"$":       ledger.DiscountValue,
		"VALUE":   ledger.DiscountValue,
	}
	for input, expected := range typeTests {
		if result := DiscountType(input); result != expected {
			t.Errorf("DiscountType(%q) = %q, expected %q", input, result, expected)
		}
	}

	howTests := map[string]ledger.DiscountHow{
		"":         ledger.DiscountPreTax,
		"<":        ledger.DiscountPreTax,
		"=":        ledger.DiscountSameTime,
		">":        ledger.DiscountPostTax,
		"posttax":  ledger.DiscountPostTax,
		"whatever": ledger.DiscountPreTax,
	}
	for input, expected := range howTests {
		if result := DiscountHow(input); result != expected {
			t.Errorf("DiscountHow(%q) = %q, expected %q", input, result, expected)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{`say ""hi""`, `say "hi"`},
		{`""""`, `""`},
		{`trailing "`, `trailing "`},
		{`lone " quote`, `lone " quote`},
		{`"""`, `""`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := Unescape(tt.input); result != tt.expected {
				t.Errorf("Unescape(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1", "1"},
		{"10.00", "10"},
		{" 2.5 ", "2.5"},
		{"2*3", "6"},
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"-4 + 1", "-3"},
		{"10 / 4", "2.5"},
		{"1,234.50", "1234.5"},
		{"--2", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := Expression(tt.input)
			if err != nil {
				t.Fatalf("Expression(%q) unexpected error: %v", tt.input, err)
			}
			if result.String() != tt.expected {
				t.Errorf("Expression(%q) = %s, expected %s", tt.input, result.String(), tt.expected)
			}
		})
	}
}

func TestExpressionErrors(t *testing.T) {
	for _, input := range []string{"", "abc", "1 +", "(1 + 2", "1 / 0", "2 3", "1..2"} {
		if _, err := Expression(input); !errors.Is(err, ErrExpression) {
			t.Errorf("Expression(%q) error = %v, expected ErrExpression", input, err)
		}
	}
}
