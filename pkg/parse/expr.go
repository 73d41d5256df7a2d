package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrExpression is returned for text that is not a valid numeric expression.
var ErrExpression = errors.New("invalid numeric expression")

// Expression evaluates an arithmetic expression such as "2 * (3.50 + 1)".
// It understands + - * /, unary minus and parentheses; commas between
// digits are read as thousands separators.
func Expression(s string) (decimal.Decimal, error) {
	p := &exprParser{src: strings.TrimSpace(s)}
	if p.src == "" {
		return decimal.Zero, fmt.Errorf("empty input: %w", ErrExpression)
	}

	v, err := p.sum()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return decimal.Zero, fmt.Errorf("unexpected %q at %d in %q: %w", p.src[p.pos], p.pos, p.src, ErrExpression)
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// sum = product { ("+" | "-") product }
func (p *exprParser) sum() (decimal.Decimal, error) {
	left, err := p.product()
	if err != nil {
		return left, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.product()
		if err != nil {
			return left, err
		}
		if op == '+' {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

// product = unary { ("*" | "/") unary }
func (p *exprParser) product() (decimal.Decimal, error) {
	left, err := p.unary()
	if err != nil {
		return left, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return left, err
		}
		if op == '*' {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return left, fmt.Errorf("division by zero in %q: %w", p.src, ErrExpression)
		}
		left = left.Div(right)
	}
}

// unary = ["-" | "+"] primary
func (p *exprParser) unary() (decimal.Decimal, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return v.Neg(), err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.primary()
}

// primary = number | "(" sum ")"
func (p *exprParser) primary() (decimal.Decimal, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.sum()
		if err != nil {
			return v, err
		}
		if p.peek() != ')' {
			return v, fmt.Errorf("missing ')' in %q: %w", p.src, ErrExpression)
		}
		p.pos++
		return v, nil
	}
	return p.number()
}

func (p *exprParser) number() (decimal.Decimal, error) {
	p.skipSpace()
	start := p.pos
	var digits strings.Builder
	for ; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]
		if isDigit(c) || c == '.' {
			digits.WriteByte(c)
			continue
		}
		// thousands separator
		if c == ',' && p.pos > start && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
			continue
		}
		break
	}
	if digits.Len() == 0 {
		return decimal.Zero, fmt.Errorf("expected number at %d in %q: %w", start, p.src, ErrExpression)
	}
	v, err := decimal.NewFromString(digits.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", digits.String(), ErrExpression)
	}
	return v, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
