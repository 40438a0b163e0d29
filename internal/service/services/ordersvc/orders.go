package ordersvc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/service/models/auditlog"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/orderitem"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
)

const maxPageSize = 100

// GetOrders retrieves orders with their items, newest first.
func (s *OrderService) GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error) {
	if query.Limit <= 0 || query.Limit > maxPageSize {
		query.Limit = maxPageSize
	}

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &query)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	if err := attachItems(ctx, work, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	orders, err := s.GetOrders(ctx, order.QueryOrdersModel{Ids: []int64{id}, Limit: 1})
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, ErrOrderNotFound
	}

	return orders[0], nil
}

func attachItems(ctx context.Context, work unitOfWork, orders []order.Order) error {
	itemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		itemQuery.OrderIds = append(itemQuery.OrderIds, o.ID)
	}

	items, err := work.OrderItemRepository().Query(ctx, itemQuery)
	if err != nil {
		return err
	}

	byOrder := make(map[int64][]orderitem.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].OrderItems = byOrder[orders[i].ID]
		if orders[i].OrderItems == nil {
			orders[i].OrderItems = []orderitem.OrderItem{}
		}
	}

	return nil
}

// UpdateStatus moves an order to a new status. Allowed moves are
// pending to completed or cancelled, and completed to cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, actor string, id int64, status order.Status) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if actor == "" {
		return order.Order{}, ErrUnauthenticated
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, err
	}

	committed := false
	defer func() {
		if !committed {
			if err := work.Rollback(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to rollback status transaction", "error", err)
			}
		}
	}()

	current, err := work.OrderRepository().GetForUpdate(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	if !current.Status.CanTransitionTo(status) {
		return order.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, current.Status, status)
	}

	if err := work.OrderRepository().UpdateStatus(ctx, id, status); err != nil {
		return order.Order{}, err
	}

	err = work.AuditRepository().Insert(ctx, auditlog.AuditLog{
		Action:    auditlog.ActionUpdateOrderStatus,
		Details:   fmt.Sprintf("Pedido %s: %s -> %s", current.OrderNumber, current.Status, status),
		UserEmail: actor,
	})
	if err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, err
	}
	committed = true

	slog.InfoContext(ctx, "Order status updated",
		"order_id", id,
		"from", current.Status,
		"to", status,
		"updated_by", actor,
	)

	return s.GetOrder(ctx, id)
}

// ReprintOrder sends an existing order to the printer again.
func (s *OrderService) ReprintOrder(ctx context.Context, actor string, id int64) (order.Order, printbridge.Result, error) {
	if actor == "" {
		return order.Order{}, printbridge.Result{}, ErrUnauthenticated
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return order.Order{}, printbridge.Result{}, err
	}

	res := s.printer.PrintOrder(ctx, receipt.FromOrder(o))

	details := fmt.Sprintf("Pedido reimpresso: %s", o.OrderNumber)
	if !res.Success {
		details = fmt.Sprintf("Falha ao reimprimir pedido: %s", o.OrderNumber)
	}
	err = s.newUOW().AuditRepository().Insert(ctx, auditlog.AuditLog{
		Action:    auditlog.ActionReprintOrder,
		Details:   details,
		UserEmail: actor,
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to audit reprint", "order_id", id, "error", err)
	}

	return o, res, nil
}

func (s *OrderService) PrinterHealth(ctx context.Context) printbridge.HealthResult {
	return s.printer.Health(ctx)
}

func (s *OrderService) TestPrint(ctx context.Context) printbridge.Result {
	return s.printer.TestPrint(ctx)
}
