package parse

import (
	"strings"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
)

// Bool reads a yes/no style token. "1", "t", "true", "y", "yes" and "x"
// (any case) are true; everything else, including blank, is false.
func Bool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "x":
		return true
	}
	return false
}

// DiscountType reads a discount type token: blank or "%" is a percentage,
// anything else an absolute value.
func DiscountType(s string) ledger.DiscountType {
	s = strings.TrimSpace(s)
	if s == "" || s == "%" || strings.EqualFold(s, string(ledger.DiscountPercent)) {
		return ledger.DiscountPercent
	}
	return ledger.DiscountValue
}

// DiscountHow reads a discount application token: "=" applies the discount
// together with tax, ">" after tax, anything else before tax.
func DiscountHow(s string) ledger.DiscountHow {
	switch s = strings.TrimSpace(s); {
	case s == "=" || strings.EqualFold(s, string(ledger.DiscountSameTime)):
		return ledger.DiscountSameTime
	case s == ">" || strings.EqualFold(s, string(ledger.DiscountPostTax)):
		return ledger.DiscountPostTax
	}
	return ledger.DiscountPreTax
}

// Unescape turns doubled quotes into single ones. A lone quote, including
// one at the end of the string, is kept as is.
func Unescape(s string) string {
	if !strings.Contains(s, `"`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		sb.WriteByte(s[i])
		if s[i] == '"' && i+1 < len(s) && s[i+1] == '"' {
			i++
		}
	}
	return sb.String()
}
