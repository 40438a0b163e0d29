package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"product_id",
	"product_name",
	"quantity",
	"unit_price_brl",
	"unit_price_pyg",
	"subtotal_brl",
	"subtotal_pyg",
	"created_at",
}

// OrderItemDal represents order item data access layer model
type OrderItemDal struct {
	Id           int64
	OrderId      int64
	ProductId    int64
	ProductName  string
	Quantity     int
	UnitPriceBRL decimal.Decimal
	UnitPricePYG decimal.Decimal
	SubtotalBRL  decimal.Decimal
	SubtotalPYG  decimal.Decimal
	CreatedAt    time.Time
}

// ToModel converts OrderItemDal to service layer OrderItem model
func (o *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:           o.Id,
		OrderID:      o.OrderId,
		ProductID:    o.ProductId,
		ProductName:  o.ProductName,
		Quantity:     o.Quantity,
		UnitPriceBRL: o.UnitPriceBRL,
		UnitPricePYG: o.UnitPricePYG,
		SubtotalBRL:  o.SubtotalBRL,
		SubtotalPYG:  o.SubtotalPYG,
		CreatedAt:    o.CreatedAt,
	}
}

type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
}

func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts all items in one statement and returns them with ids, in input order.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := sq.Insert("order_items").
		Columns(
			"order_id",
			"product_id",
			"product_name",
			"quantity",
			"unit_price_brl",
			"unit_price_pyg",
			"subtotal_brl",
			"subtotal_pyg",
		).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(sq.Dollar)

	for _, item := range orderItems {
		builder = builder.Values(
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPriceBRL,
			item.UnitPricePYG,
			item.SubtotalBRL,
			item.SubtotalPYG,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	i := 0
	for rows.Next() {
		item := orderItems[i]
		if err := rows.Scan(&item.ID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, item)
		i++
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(result) != len(orderItems) {
		return nil, fmt.Errorf("failed to bulk insert order items: inserted %d of %d", len(result), len(orderItems))
	}

	return result, nil
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	builder := sq.Select(orderItemColumns...).
		From("order_items").
		OrderBy("order_id", "id").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	if len(filter.ProductIds) > 0 {
		builder = builder.Where(sq.Eq{"product_id": filter.ProductIds})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := []orderitem.OrderItem{}
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.ProductName,
			&dal.Quantity,
			&dal.UnitPriceBRL,
			&dal.UnitPricePYG,
			&dal.SubtotalBRL,
			&dal.SubtotalPYG,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
