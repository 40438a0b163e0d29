package exchangerate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rate is the number of foreign-currency units bought by one local-currency unit.
// The zero Rate is the degenerate rate: it converts every amount to zero.
type Rate struct {
	value decimal.Decimal
}

// Scale is the number of decimal places a rate keeps, matching orders.exchange_rate.
const Scale = 4

// New builds a rate from a decimal rounded to Scale places. Values that are
// not positive after rounding give the degenerate rate.
func New(d decimal.Decimal) Rate {
	d = d.Round(Scale)
	if !d.IsPositive() {
		return Rate{}
	}

	return Rate{value: d}
}

// Parse reads the free-text rate field typed by the operator. It never fails:
// empty, non-numeric, zero or negative input yields the degenerate rate.
// Both "." and "," are accepted as decimal separator.
func Parse(s string) Rate {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rate{}
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}
	}

	return New(d)
}

// IsZero reports whether r is the degenerate rate.
func (r Rate) IsZero() bool {
	return r.value.IsZero()
}

// Decimal returns the rate value.
func (r Rate) Decimal() decimal.Decimal {
	return r.value
}

// Convert returns the foreign amount for a local amount, rounded to cents.
func (r Rate) Convert(local decimal.Decimal) decimal.Decimal {
	if r.IsZero() {
		return decimal.Zero
	}

	return local.Mul(r.value).Round(2)
}

func (r Rate) String() string {
	return r.value.StringFixed(2)
}
