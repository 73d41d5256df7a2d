package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInexact is returned when a value cannot be represented in the requested
// denominator without rounding.
var ErrInexact = errors.New("value not representable without rounding")

// Numeric is an exact rational amount Num/Denom.
type Numeric struct {
	Num   int64
	Denom int64
}

// Zero returns a zero amount in the given denominator.
func Zero(denom int64) Numeric {
	return Numeric{Num: 0, Denom: denom}
}

// Rescale converts d to denominator denom. Rounding is never applied:
// values that would need it return ErrInexact.
func Rescale(d decimal.Decimal, denom int64) (Numeric, error) {
	if denom <= 0 {
		return Numeric{}, fmt.Errorf("invalid denominator %d", denom)
	}

	scaled := d.Mul(decimal.NewFromInt(denom))
	if !scaled.IsInteger() {
		return Numeric{}, fmt.Errorf("%s in 1/%d: %w", d.String(), denom, ErrInexact)
	}

	n := scaled.BigInt()
	if !n.IsInt64() {
		return Numeric{}, fmt.Errorf("%s in 1/%d: overflow", d.String(), denom)
	}

	return Numeric{Num: n.Int64(), Denom: denom}, nil
}

// Decimal returns the amount as a decimal.
func (n Numeric) Decimal() decimal.Decimal {
	if n.Denom == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(n.Num).Div(decimal.NewFromInt(n.Denom))
}

// IsZero reports whether the amount is zero.
func (n Numeric) IsZero() bool {
	return n.Num == 0
}

func (n Numeric) String() string {
	return n.Decimal().String()
}
