package ordersvc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/msalarini/store-lamayer/internal/dal/interfaces/iauditrepo"
	iorder "github.com/msalarini/store-lamayer/internal/dal/interfaces/iorderrepo"
	iorderitem "github.com/msalarini/store-lamayer/internal/dal/interfaces/iorderitemrepo"
	"github.com/msalarini/store-lamayer/internal/dal/interfaces/ioutboxrepo"
	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/service/models/auditlog"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/orderitem"
	"github.com/msalarini/store-lamayer/internal/service/models/outbox"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"github.com/stretchr/testify/mock"
)

var errDB = errors.New("db is down")

// store is an in-memory database. Writes made inside a unit of work are
// staged and only become visible on commit.
type store struct {
	mu sync.Mutex

	orders  []order.Order
	items   []orderitem.OrderItem
	audits  []auditlog.AuditLog
	outbox  []outbox.OutboxMessage
	nextID  int64
	numbers int

	failNumber bool
	failItems  bool
	failAudit  bool
	failCommit bool

	commits   int
	rollbacks int
}

func newStore() *store {
	return &store{}
}

func (s *store) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders) + len(s.items) + len(s.audits) + len(s.outbox)
}

type fakeUOW struct {
	db *store
	tx bool

	orders []order.Order
	items  []orderitem.OrderItem
	audits []auditlog.AuditLog
	outbox []outbox.OutboxMessage
}

func (s *store) newUOW() unitOfWork {
	return &fakeUOW{db: s}
}

func (u *fakeUOW) Begin(context.Context) error {
	u.tx = true
	return nil
}

func (u *fakeUOW) Commit(context.Context) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	if u.db.failCommit {
		return errDB
	}
	u.db.orders = append(u.db.orders, u.orders...)
	u.db.items = append(u.db.items, u.items...)
	u.db.audits = append(u.db.audits, u.audits...)
	u.db.outbox = append(u.db.outbox, u.outbox...)
	u.db.commits++
	u.reset()

	return nil
}

func (u *fakeUOW) Rollback(context.Context) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	if u.tx {
		u.db.rollbacks++
	}
	u.reset()

	return nil
}

func (u *fakeUOW) reset() {
	u.tx = false
	u.orders, u.items, u.audits, u.outbox = nil, nil, nil, nil
}

func (u *fakeUOW) OrderRepository() iorder.IOrderRepository          { return (*fakeOrderRepo)(u) }
func (u *fakeUOW) OrderItemRepository() iorderitem.IOrderItemRepository { return (*fakeItemRepo)(u) }
func (u *fakeUOW) AuditRepository() iauditrepo.IAuditRepository      { return (*fakeAuditRepo)(u) }
func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository   { return (*fakeOutboxRepo)(u) }

type fakeOrderRepo fakeUOW

func (r *fakeOrderRepo) NextOrderNumber(context.Context) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.failNumber {
		return "", errDB
	}
	r.db.numbers++

	return "PED-" + string(rune('0'+r.db.numbers)), nil
}

func (r *fakeOrderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.nextID++
	o.ID = r.db.nextID
	o.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	header := o
	header.OrderItems = nil
	r.orders = append(r.orders, header)
	if !r.tx {
		r.db.orders = append(r.db.orders, header)
	}

	return o, nil
}

func (r *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var result []order.Order
	for _, o := range r.db.orders {
		if len(filter.Ids) > 0 && !containsID(filter.Ids, o.ID) {
			continue
		}
		result = append(result, o)
	}

	return result, nil
}

func (r *fakeOrderRepo) GetForUpdate(_ context.Context, id int64) (order.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, o := range r.db.orders {
		if o.ID == id {
			return o, nil
		}
	}

	return order.Order{}, order.ErrOrderNotFound
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status order.Status) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range r.db.orders {
		if r.db.orders[i].ID == id {
			r.db.orders[i].Status = status
			return nil
		}
	}

	return order.ErrOrderNotFound
}

type fakeItemRepo fakeUOW

func (r *fakeItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.failItems {
		return nil, errDB
	}
	out := make([]orderitem.OrderItem, len(items))
	for i, it := range items {
		r.db.nextID++
		it.ID = r.db.nextID
		out[i] = it
	}
	r.items = append(r.items, out...)

	return out, nil
}

func (r *fakeItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var result []orderitem.OrderItem
	for _, it := range r.db.items {
		if containsID(filter.OrderIds, it.OrderID) {
			result = append(result, it)
		}
	}

	return result, nil
}

type fakeAuditRepo fakeUOW

func (r *fakeAuditRepo) Insert(_ context.Context, log auditlog.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.failAudit {
		return errDB
	}
	if r.tx {
		r.audits = append(r.audits, log)
	} else {
		r.db.audits = append(r.db.audits, log)
	}

	return nil
}

type fakeOutboxRepo fakeUOW

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.outbox = append(r.outbox, msg)

	return nil
}

func (r *fakeOutboxRepo) ClaimPending(context.Context, int, time.Duration) ([]outbox.OutboxMessage, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Delete(context.Context, int64) error { return nil }

func (r *fakeOutboxRepo) ScheduleRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}

type fakeCatalog struct {
	products map[int64]product.Product
	err      error
}

func (c *fakeCatalog) GetByID(_ context.Context, id int64) (product.Product, error) {
	if c.err != nil {
		return product.Product{}, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return product.Product{}, product.ErrProductNotFound
	}

	return p, nil
}

func (c *fakeCatalog) Query(context.Context, *product.QueryProductsModel) ([]product.Product, error) {
	result := make([]product.Product, 0, len(c.products))
	for _, p := range c.products {
		result = append(result, p)
	}

	return result, nil
}

type mockPrinter struct {
	mock.Mock
}

func (m *mockPrinter) PrintOrder(ctx context.Context, data receipt.OrderData) printbridge.Result {
	args := m.Called(ctx, data)
	return args.Get(0).(printbridge.Result)
}

func (m *mockPrinter) TestPrint(ctx context.Context) printbridge.Result {
	args := m.Called(ctx)
	return args.Get(0).(printbridge.Result)
}

func (m *mockPrinter) Health(ctx context.Context) printbridge.HealthResult {
	args := m.Called(ctx)
	return args.Get(0).(printbridge.HealthResult)
}
