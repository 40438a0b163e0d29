package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
)

var productColumns = []string{
	"id",
	"name",
	"description",
	"buy_price",
	"sell_price",
	"wholesale_price",
	"quantity",
	"min_stock_level",
	"category_id",
	"supplier_id",
	"barcode",
	"created_at",
}

func scanTargets(p *product.Product) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.BuyPrice,
		&p.SellPrice,
		&p.WholesalePrice,
		&p.Quantity,
		&p.MinStockLevel,
		&p.CategoryID,
		&p.SupplierID,
		&p.Barcode,
		&p.CreatedAt,
	}
}

// ProductRepository reads the catalog.
type ProductRepository struct {
	conn postgres.GenericConn
}

func NewProductRepository(conn postgres.GenericConn) *ProductRepository {
	return &ProductRepository{
		conn: conn,
	}
}

// GetByID returns product.ErrProductNotFound when no row matches.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (product.Product, error) {
	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var p product.Product
	if err := r.conn.QueryRow(ctx, query, args...).Scan(scanTargets(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrProductNotFound
		}
		return product.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// Query searches products by name or exact barcode, ordered by name.
func (r *ProductRepository) Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error) {
	builder := sq.Select(productColumns...).
		From("products").
		OrderBy("name", "id").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		builder = builder.Where(sq.Or{
			sq.ILike{"name": "%" + search + "%"},
			sq.Eq{"barcode": search},
		})
	}

	if filter.CategoryID > 0 {
		builder = builder.Where(sq.Eq{"category_id": filter.CategoryID})
	}

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	result := []product.Product{}
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
