package iproductrepo

import (
	"context"

	"github.com/msalarini/store-lamayer/internal/service/models/product"
)

// IProductRepository is the read-only catalog used by the POS.
type IProductRepository interface {
	GetByID(ctx context.Context, id int64) (product.Product, error)
	Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error)
}
