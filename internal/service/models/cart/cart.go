package cart

import (
	"github.com/msalarini/store-lamayer/internal/service/models/exchangerate"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart. Product is a copy taken when the line was added.
type Line struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// SubtotalLocal is unit price times quantity in the local currency.
func (l Line) SubtotalLocal() decimal.Decimal {
	return l.Product.SellPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// Totals holds the cart total in both currencies.
type Totals struct {
	Local   decimal.Decimal
	Foreign decimal.Decimal
	Rate    exchangerate.Rate
}

// Cart is an ordered list of lines with at most one line per product.
// A Cart is not safe for concurrent use; Session guards it.
type Cart struct {
	lines []Line
}

// Add increments the quantity of an existing line or appends a new line with quantity 1.
// Stock is not checked.
func (c *Cart) Add(p product.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// UpdateQuantity sets the quantity of a product's line. Zero or negative removes it.
// Unknown products are ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

// Remove deletes the product's line if present.
func (c *Cart) Remove(productID int64) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)

	return lines
}

// Quantity returns the quantity of the product in the cart, 0 when absent.
func (c *Cart) Quantity(productID int64) int {
	for _, l := range c.lines {
		if l.Product.ID == productID {
			return l.Quantity
		}
	}

	return 0
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}

	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Totals computes the cart total in the local currency and its conversion at rate.
func (c *Cart) Totals(rate exchangerate.Rate) Totals {
	local := decimal.Zero
	for _, l := range c.lines {
		local = local.Add(l.SubtotalLocal())
	}

	return Totals{
		Local:   local,
		Foreign: rate.Convert(local),
		Rate:    rate,
	}
}
