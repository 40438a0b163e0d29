package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

// Every amount is carried in BRL and in PYG at the same time.
const (
	CurrencyBRL Currency = "BRL"
	CurrencyPYG Currency = "PYG"
)

func (c Currency) String() string {
	return string(c)
}

// Symbol is the prefix printed before amounts on tickets.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyBRL:
		return "R$"
	case CurrencyPYG:
		return "G$"
	default:
		return c.String()
	}
}

// Format renders d the way the receipt shows it: BRL with two decimals,
// PYG rounded to whole units with dot-grouped thousands.
func (c Currency) Format(d decimal.Decimal) string {
	switch c {
	case CurrencyPYG:
		return c.Symbol() + " " + GroupThousands(d.Round(0))
	default:
		return c.Symbol() + " " + d.StringFixed(2)
	}
}

// GroupThousands formats an integral amount with "." between groups of three digits.
func GroupThousands(d decimal.Decimal) string {
	digits := d.Abs().Truncate(0).String()

	var b strings.Builder
	if d.IsNegative() && !d.Truncate(0).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return b.String()
}
