package receipt

import (
	"time"

	"github.com/msalarini/store-lamayer/internal/service/models/order"
)

// OrderData is the payload accepted by the print server under the "orderData" key.
// Amounts travel as JSON numbers.
type OrderData struct {
	OrderNumber   string     `json:"orderNumber"   validate:"required"`
	CustomerName  string     `json:"customerName,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	TotalBRL      float64    `json:"totalBRL"      validate:"gte=0"`
	TotalPYG      float64    `json:"totalPYG"      validate:"gte=0"`
	ExchangeRate  float64    `json:"exchangeRate"  validate:"gte=0"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	Items         []Item     `json:"items"         validate:"dive"`
}

// Item is one printed line.
type Item struct {
	ProductName  string  `json:"productName"  validate:"required"`
	Quantity     int     `json:"quantity"     validate:"gt=0"`
	UnitPriceBRL float64 `json:"unitPriceBRL"`
	UnitPricePYG float64 `json:"unitPricePYG"`
	SubtotalBRL  float64 `json:"subtotalBRL"`
	SubtotalPYG  float64 `json:"subtotalPYG"`
}

// PrintRequest is the body of POST /print.
type PrintRequest struct {
	OrderData *OrderData `json:"orderData"`
}

// FromOrder flattens a persisted order into the print payload.
func FromOrder(o order.Order) OrderData {
	createdAt := o.CreatedAt

	data := OrderData{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		TotalBRL:      o.TotalBRL.InexactFloat64(),
		TotalPYG:      o.TotalPYG.InexactFloat64(),
		ExchangeRate:  o.ExchangeRate.InexactFloat64(),
		Items:         make([]Item, 0, len(o.OrderItems)),
	}
	if !createdAt.IsZero() {
		data.CreatedAt = &createdAt
	}

	for _, it := range o.OrderItems {
		data.Items = append(data.Items, Item{
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPriceBRL: it.UnitPriceBRL.InexactFloat64(),
			UnitPricePYG: it.UnitPricePYG.InexactFloat64(),
			SubtotalBRL:  it.SubtotalBRL.InexactFloat64(),
			SubtotalPYG:  it.SubtotalPYG.InexactFloat64(),
		})
	}

	return data
}
