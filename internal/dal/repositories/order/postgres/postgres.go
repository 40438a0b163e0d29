package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"id",
	"order_number",
	"customer_name",
	"customer_phone",
	"total_brl",
	"total_pyg",
	"exchange_rate",
	"status",
	"created_by",
	"created_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	Id            int64
	OrderNumber   string
	CustomerName  *string
	CustomerPhone *string
	TotalBRL      decimal.Decimal
	TotalPYG      decimal.Decimal
	ExchangeRate  decimal.Decimal
	Status        string
	CreatedBy     string
	CreatedAt     time.Time
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.Id,
		&o.OrderNumber,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.TotalBRL,
		&o.TotalPYG,
		&o.ExchangeRate,
		&o.Status,
		&o.CreatedBy,
		&o.CreatedAt,
	}
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:            o.Id,
		OrderNumber:   o.OrderNumber,
		CustomerName:  deref(o.CustomerName),
		CustomerPhone: deref(o.CustomerPhone),
		TotalBRL:      o.TotalBRL,
		TotalPYG:      o.TotalPYG,
		ExchangeRate:  o.ExchangeRate,
		Status:        status,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		OrderItems:    []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

type PostgresOrderRepository struct {
	conn postgres.GenericConn
}

func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// NextOrderNumber asks the database for the next human-readable order number.
func (r *PostgresOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	var number *string
	if err := r.conn.QueryRow(ctx, "SELECT generate_order_number()").Scan(&number); err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	if number == nil || *number == "" {
		return "", errors.New("failed to generate order number: empty result")
	}

	return *number, nil
}

// Insert stores the order header and returns it with the database id and created_at.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns(
			"order_number",
			"customer_name",
			"customer_phone",
			"total_brl",
			"total_pyg",
			"exchange_rate",
			"status",
			"created_by",
		).
		Values(
			o.OrderNumber,
			nullable(o.CustomerName),
			nullable(o.CustomerPhone),
			o.TotalBRL,
			o.TotalPYG,
			o.ExchangeRate,
			o.Status.String(),
			o.CreatedBy,
		).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		builder = builder.Where(sq.Eq{"status": statuses})
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
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetForUpdate loads one order and locks its row until the surrounding transaction ends.
func (r *PostgresOrderRepository) GetForUpdate(ctx context.Context, id int64) (order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert order dal to model: %w", err)
	}

	return *model, nil
}

// UpdateStatus sets the status of one order.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	query, args, err := sq.Update("orders").
		Set("status", status.String()).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}
