package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/service/models/auditlog"
	"github.com/msalarini/store-lamayer/internal/service/models/cart"
	"github.com/msalarini/store-lamayer/internal/service/models/exchangerate"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/orderitem"
	"github.com/msalarini/store-lamayer/internal/service/models/outbox"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CreateOrderResult is a persisted order and the outcome of printing it.
type CreateOrderResult struct {
	Order order.Order
	Print printbridge.Result
	// NumberFallback is set when the database could not issue an order number
	// and a timestamp-based one was used.
	NumberFallback bool
}

// CreateOrder turns the actor's cart into an order. Header, lines, audit entry
// and the order event are written in one transaction. The cart is cleared only
// after commit, and the ticket is printed after that; a print failure is
// reported in the result and never undoes the order. Nothing is retried.
func (s *OrderService) CreateOrder(ctx context.Context, actor string, info CheckoutInfo) (CreateOrderResult, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	sess, err := s.session(actor)
	if err != nil {
		return CreateOrderResult{}, err
	}

	created, fallback, err := s.checkout(ctx, sess, actor, info)
	if err != nil {
		return CreateOrderResult{}, err
	}

	slog.InfoContext(ctx, "Order created",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"items", len(created.OrderItems),
		"total_brl", created.TotalBRL.StringFixed(2),
		"created_by", actor,
	)

	// Printing runs outside the session lock.
	printResult := s.printer.PrintOrder(context.WithoutCancel(ctx), receipt.FromOrder(created))
	span.SetAttributes(attribute.Bool("order.printed", printResult.Success))

	return CreateOrderResult{
		Order:          created,
		Print:          printResult,
		NumberFallback: fallback,
	}, nil
}

// checkout persists the cart held by sess and resets it. It releases the
// session lock taken by s.session before returning.
func (s *OrderService) checkout(ctx context.Context, sess *cart.Session, actor string, info CheckoutInfo) (order.Order, bool, error) {
	defer sess.Unlock()

	span := trace.SpanFromContext(ctx)

	applyCheckoutInfo(sess, info)

	if sess.Cart.IsEmpty() {
		return order.Order{}, false, ErrEmptyCart
	}

	rate := sess.Rate()
	if rate.IsZero() {
		slog.WarnContext(ctx, "Order rejected, invalid exchange rate", "rate_input", sess.RateInput, "actor", actor)
		return order.Order{}, false, ErrInvalidExchangeRate
	}

	draft := buildOrder(sess, rate, actor)

	work := s.newUOW()

	number, fallback := s.nextOrderNumber(ctx, work)
	draft.OrderNumber = number
	span.SetAttributes(attribute.String("order.number", number), attribute.Bool("order.number_fallback", fallback))

	created, err := s.persistOrder(ctx, work, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist order")
		return order.Order{}, false, err
	}

	sess.Reset()

	return created, fallback, nil
}

// buildOrder snapshots the cart lines and totals into an unsaved order.
func buildOrder(sess *cart.Session, rate exchangerate.Rate, actor string) order.Order {
	lines := sess.Cart.Lines()
	totals := sess.Cart.Totals(rate)

	items := make([]orderitem.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, orderitem.New(l.Product.ID, l.Product.Name, l.Product.SellPrice, l.Quantity, rate))
	}

	return order.Order{
		CustomerName:  sess.CustomerName,
		CustomerPhone: sess.CustomerPhone,
		TotalBRL:      totals.Local,
		TotalPYG:      totals.Foreign,
		ExchangeRate:  rate.Decimal(),
		Status:        order.StatusCompleted,
		CreatedBy:     actor,
		OrderItems:    items,
	}
}

// nextOrderNumber falls back to ORD-<unix millis> when the database cannot
// issue a number. Two fallbacks in the same millisecond collide on the unique index.
func (s *OrderService) nextOrderNumber(ctx context.Context, work unitOfWork) (string, bool) {
	number, err := work.OrderRepository().NextOrderNumber(ctx)
	if err == nil {
		return number, false
	}

	fallback := fmt.Sprintf("ORD-%d", s.now().UnixMilli())
	slog.WarnContext(ctx, "Order number generation failed, using fallback", "fallback", fallback, "error", err)

	return fallback, true
}

func (s *OrderService) persistOrder(ctx context.Context, work unitOfWork, draft order.Order) (created order.Order, err error) {
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, err
	}
	defer func() {
		if err != nil {
			if rbErr := work.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "Failed to rollback order transaction", "error", rbErr)
			}
		}
	}()

	created, err = work.OrderRepository().Insert(ctx, draft)
	if err != nil {
		return order.Order{}, err
	}

	items := make([]orderitem.OrderItem, len(draft.OrderItems))
	for i, item := range draft.OrderItems {
		item.OrderID = created.ID
		items[i] = item
	}
	created.OrderItems, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return order.Order{}, err
	}

	err = work.AuditRepository().Insert(ctx, auditlog.AuditLog{
		Action:    auditlog.ActionCreateOrder,
		Details:   fmt.Sprintf("Pedido criado: %s - Total: R$ %s", created.OrderNumber, created.TotalBRL.StringFixed(2)),
		UserEmail: created.CreatedBy,
	})
	if err != nil {
		return order.Order{}, err
	}

	msg, err := s.orderCreatedMessage(created)
	if err != nil {
		return order.Order{}, err
	}
	if err = work.OutboxRepository().Insert(ctx, msg); err != nil {
		return order.Order{}, err
	}

	if err = work.Commit(ctx); err != nil {
		return order.Order{}, err
	}

	return created, nil
}

func (s *OrderService) orderCreatedMessage(o order.Order) (outbox.OutboxMessage, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return outbox.OutboxMessage{}, fmt.Errorf("failed to marshal order event: %w", err)
	}

	now := s.now()

	return outbox.OutboxMessage{
		MessageID:    uuid.NewString(),
		ExchangeName: s.events.exchange,
		RoutingKey:   s.events.routingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   s.events.maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}, nil
}
