package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry. The POS only reads products; SellPrice is in the local currency.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	BuyPrice       decimal.Decimal `json:"buyPrice"`
	SellPrice      decimal.Decimal `json:"sellPrice"`
	WholesalePrice decimal.Decimal `json:"wholesalePrice"`
	Quantity       int             `json:"quantity"`
	MinStockLevel  int             `json:"minStockLevel"`
	CategoryID     *int64          `json:"categoryId,omitempty"`
	SupplierID     *int64          `json:"supplierId,omitempty"`
	Barcode        string          `json:"barcode,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// LowStock reports whether the on-hand quantity is at or below the configured minimum.
func (p Product) LowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

// QueryProductsModel represents filter parameters for querying products.
type QueryProductsModel struct {
	Ids        []int64 `json:"ids,omitempty"`
	Search     string  `json:"search,omitempty"`
	CategoryID int64   `json:"categoryId,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}
