package ordersvc

import (
	"context"
	"errors"
	"time"

	"github.com/msalarini/store-lamayer/internal/dal/interfaces/iauditrepo"
	iorder "github.com/msalarini/store-lamayer/internal/dal/interfaces/iorderrepo"
	iorderitem "github.com/msalarini/store-lamayer/internal/dal/interfaces/iorderitemrepo"
	"github.com/msalarini/store-lamayer/internal/dal/interfaces/ioutboxrepo"
	"github.com/msalarini/store-lamayer/internal/dal/interfaces/iproductrepo"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/dal/uow"
	"github.com/msalarini/store-lamayer/internal/service/models/cart"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ordersvc")

var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidExchangeRate     = errors.New("exchange rate must be greater than zero")
	ErrProductNotFound         = product.ErrProductNotFound
	ErrOrderNotFound           = order.ErrOrderNotFound
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// OrderService composes carts into orders and sends them to the printer.
type OrderService struct {
	pgClient   *postgres.Client
	uowFactory func() unitOfWork
	products   iproductrepo.IProductRepository
	printer    printer
	sessions   *cart.Registry
	events     eventRouting
	now        func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorder.IOrderRepository
	OrderItemRepository() iorderitem.IOrderItemRepository
	AuditRepository() iauditrepo.IAuditRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// printer is the print bridge. Its calls never fail; outcomes are reported in the results.
type printer interface {
	PrintOrder(ctx context.Context, data receipt.OrderData) printbridge.Result
	TestPrint(ctx context.Context) printbridge.Result
	Health(ctx context.Context) printbridge.HealthResult
}

type eventRouting struct {
	exchange   string
	routingKey string
	maxRetries int
}

func (s *OrderService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		sessions: cart.NewRegistry(),
		events: eventRouting{
			exchange:   "orders",
			routingKey: "orders.created",
			maxRetries: 10,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.pgClient == nil && s.uowFactory == nil {
		panic("ordersvc: postgres client is required")
	}
	if s.products == nil {
		panic("ordersvc: product repository is required")
	}
	if s.printer == nil {
		panic("ordersvc: print bridge is required")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory replaces the Postgres-backed unit of work.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(f func() unitOfWork) option {
	return func(s *OrderService) {
		s.uowFactory = f
	}
}

// WithProductRepository sets the catalog used to resolve cart additions.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *OrderService) {
		s.products = repo
	}
}

// WithPrintBridge sets the print server client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPrintBridge(p printer) option {
	return func(s *OrderService) {
		s.printer = p
	}
}

// WithEventRouting sets where order events are published and how often delivery is retried.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventRouting(exchange, routingKey string, maxRetries int) option {
	return func(s *OrderService) {
		s.events = eventRouting{
			exchange:   exchange,
			routingKey: routingKey,
			maxRetries: maxRetries,
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// session returns the locked session of actor. The caller must unlock it.
func (s *OrderService) session(actor string) (*cart.Session, error) {
	if actor == "" {
		return nil, ErrUnauthenticated
	}

	sess := s.sessions.Get(actor)
	sess.Lock()

	return sess, nil
}
