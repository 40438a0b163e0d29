package orderitem

import (
	"time"

	"github.com/msalarini/store-lamayer/internal/service/models/exchangerate"
	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. Name and prices are copied from the
// product at order time and never follow later catalog edits.
type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"orderId"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	UnitPriceBRL decimal.Decimal `json:"unitPriceBRL"`
	UnitPricePYG decimal.Decimal `json:"unitPricePYG"`
	SubtotalBRL  decimal.Decimal `json:"subtotalBRL"`
	SubtotalPYG  decimal.Decimal `json:"subtotalPYG"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// New builds a line snapshot from a product's name, unit price and quantity.
func New(productID int64, name string, unitPrice decimal.Decimal, quantity int, rate exchangerate.Rate) OrderItem {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	return OrderItem{
		ProductID:    productID,
		ProductName:  name,
		Quantity:     quantity,
		UnitPriceBRL: unitPrice.Round(2),
		UnitPricePYG: rate.Convert(unitPrice),
		SubtotalBRL:  subtotal,
		SubtotalPYG:  rate.Convert(subtotal),
	}
}

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	Ids        []int64 `json:"ids,omitempty"`
	OrderIds   []int64 `json:"orderIds,omitempty"`
	ProductIds []int64 `json:"productIds,omitempty"`
}
