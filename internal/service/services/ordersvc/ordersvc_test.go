package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/service/models/auditlog"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const actor = "caixa@storelamayer.com"

func strPtr(s string) *string { return &s }

type fixture struct {
	svc     *OrderService
	db      *store
	catalog *fakeCatalog
	printer *mockPrinter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newStore()
	catalog := &fakeCatalog{products: map[int64]product.Product{
		1: {ID: 1, Name: "Canela em pau", SellPrice: decimal.RequireFromString("100.00"), Quantity: 10},
		2: {ID: 2, Name: "Páprica doce", SellPrice: decimal.RequireFromString("7.25"), Quantity: 0},
	}}
	printer := &mockPrinter{}

	svc := MustNewOrderService(
		WithUnitOfWorkFactory(db.newUOW),
		WithProductRepository(catalog),
		WithPrintBridge(printer),
		WithClock(func() time.Time { return time.UnixMilli(1735689600123) }),
	)

	return &fixture{svc: svc, db: db, catalog: catalog, printer: printer}
}

func (f *fixture) fillCart(t *testing.T, rate string) {
	t.Helper()

	_, err := f.svc.AddToCart(context.Background(), actor, 1)
	require.NoError(t, err)
	_, err = f.svc.SetCheckoutInfo(actor, CheckoutInfo{ExchangeRate: strPtr(rate)})
	require.NoError(t, err)
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, actor, 1)
	require.NoError(t, err)
	view, err := f.svc.AddToCart(ctx, actor, 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, "200.00", view.Totals.Local.StringFixed(2))
}

func TestAddToCart_OutOfStockIsAllowed(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.AddToCart(context.Background(), actor, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalItems)
}

func TestAddToCart_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, actor, 99)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.svc.AddToCart(ctx, "", 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	f.catalog.err = errDB
	_, err = f.svc.AddToCart(ctx, actor, 1)
	assert.ErrorIs(t, err, errDB)
}

func TestCartsAreIsolatedPerActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddToCart(context.Background(), actor, 1)
	require.NoError(t, err)

	other, err := f.svc.GetCart("outro@storelamayer.com")
	require.NoError(t, err)
	assert.Empty(t, other.Lines)
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.svc.AddToCart(ctx, actor, 1)
	_, _ = f.svc.AddToCart(ctx, actor, 2)

	view, err := f.svc.UpdateQuantity(actor, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, view.TotalItems)
	assert.Equal(t, "129.00", view.Totals.Local.StringFixed(2))

	view, err = f.svc.UpdateQuantity(actor, 2, 0)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)

	view, err = f.svc.RemoveFromCart(actor, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestClearCartResetsCustomer(t *testing.T) {
	f := newFixture(t)
	_, _ = f.svc.AddToCart(context.Background(), actor, 1)
	_, err := f.svc.SetCheckoutInfo(actor, CheckoutInfo{
		CustomerName:  strPtr("  Ana  "),
		CustomerPhone: strPtr("123"),
		ExchangeRate:  strPtr("1350"),
	})
	require.NoError(t, err)

	view, err := f.svc.ClearCart(actor)
	require.NoError(t, err)

	assert.Empty(t, view.Lines)
	assert.Empty(t, view.CustomerName)
	assert.Empty(t, view.CustomerPhone)
	assert.Equal(t, "1350", view.RateInput)
}

func TestSetCheckoutInfo_TotalsFollowRate(t *testing.T) {
	f := newFixture(t)
	_, _ = f.svc.AddToCart(context.Background(), actor, 1)

	view, err := f.svc.SetCheckoutInfo(actor, CheckoutInfo{ExchangeRate: strPtr("1350")})
	require.NoError(t, err)
	assert.Equal(t, "135000.00", view.Totals.Foreign.StringFixed(2))

	view, err = f.svc.SetCheckoutInfo(actor, CheckoutInfo{ExchangeRate: strPtr("abc")})
	require.NoError(t, err)
	assert.True(t, view.Totals.Foreign.IsZero())
	assert.Equal(t, "100.00", view.Totals.Local.StringFixed(2))
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "1350")
	f.printer.On("PrintOrder", mock.Anything, mock.MatchedBy(func(d receipt.OrderData) bool {
		return d.OrderNumber == "PED-1" && d.TotalPYG == 135000 && d.CreatedAt != nil && len(d.Items) == 1
	})).Return(printbridge.Result{Success: true, Message: "ok"}).Once()

	res, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{CustomerName: strPtr("Maria")})
	require.NoError(t, err)

	assert.Equal(t, "PED-1", res.Order.OrderNumber)
	assert.False(t, res.NumberFallback)
	assert.True(t, res.Print.Success)
	assert.Equal(t, order.StatusCompleted, res.Order.Status)
	assert.Equal(t, actor, res.Order.CreatedBy)
	assert.Equal(t, "Maria", res.Order.CustomerName)
	assert.Equal(t, "100.00", res.Order.TotalBRL.StringFixed(2))
	assert.Equal(t, "135000.00", res.Order.TotalPYG.StringFixed(2))
	require.Len(t, res.Order.OrderItems, 1)
	assert.Equal(t, res.Order.ID, res.Order.OrderItems[0].OrderID)
	assert.Equal(t, "135000.00", res.Order.OrderItems[0].SubtotalPYG.StringFixed(2))

	assert.Equal(t, 1, f.db.commits)
	require.Len(t, f.db.orders, 1)
	require.Len(t, f.db.items, 1)
	require.Len(t, f.db.audits, 1)
	assert.Equal(t, auditlog.ActionCreateOrder, f.db.audits[0].Action)
	assert.Equal(t, "Pedido criado: PED-1 - Total: R$ 100.00", f.db.audits[0].Details)
	assert.Equal(t, actor, f.db.audits[0].UserEmail)

	require.Len(t, f.db.outbox, 1)
	assert.Equal(t, "orders", f.db.outbox[0].ExchangeName)
	assert.Equal(t, "orders.created", f.db.outbox[0].RoutingKey)
	assert.NotEmpty(t, f.db.outbox[0].MessageID)
	var event order.Order
	require.NoError(t, json.Unmarshal(f.db.outbox[0].Payload, &event))
	assert.Equal(t, "PED-1", event.OrderNumber)

	view, err := f.svc.GetCart(actor)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Empty(t, view.CustomerName)

	f.printer.AssertExpectations(t)
}

func TestCreateOrder_TotalsMatchLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.svc.AddToCart(ctx, actor, 1)
	_, _ = f.svc.AddToCart(ctx, actor, 2)
	_, _ = f.svc.UpdateQuantity(actor, 2, 3)
	_, _ = f.svc.SetCheckoutInfo(actor, CheckoutInfo{ExchangeRate: strPtr("1312,5")})
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).Return(printbridge.Result{Success: true})

	res, err := f.svc.CreateOrder(ctx, actor, CheckoutInfo{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range res.Order.OrderItems {
		assert.True(t, it.UnitPriceBRL.Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(it.SubtotalBRL))
		sum = sum.Add(it.SubtotalBRL)
	}
	assert.True(t, sum.Equal(res.Order.TotalBRL))
	assert.Equal(t, "121.75", res.Order.TotalBRL.StringFixed(2))
	assert.True(t, res.Order.TotalBRL.Mul(decimal.RequireFromString("1312.5")).Round(2).Equal(res.Order.TotalPYG))
}

func TestCreateOrder_EmptyCartWritesNothing(t *testing.T) {
	f := newFixture(t)
	_, _ = f.svc.SetCheckoutInfo(actor, CheckoutInfo{ExchangeRate: strPtr("1350")})

	_, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.db.writes())
	assert.Zero(t, f.db.numbers)
	f.printer.AssertNotCalled(t, "PrintOrder", mock.Anything, mock.Anything)
}

func TestCreateOrder_UnauthenticatedWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), "", CheckoutInfo{})

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, f.db.writes())
}

func TestCreateOrder_DegenerateRateIsRejected(t *testing.T) {
	for _, rate := range []string{"", "0", "-5", "abc"} {
		t.Run("rate "+rate, func(t *testing.T) {
			f := newFixture(t)
			f.fillCart(t, rate)

			_, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})

			assert.ErrorIs(t, err, ErrInvalidExchangeRate)
			assert.Zero(t, f.db.writes())

			view, _ := f.svc.GetCart(actor)
			assert.Len(t, view.Lines, 1)
		})
	}
}

func TestCreateOrder_OrderNumberFallback(t *testing.T) {
	f := newFixture(t)
	f.db.failNumber = true
	f.fillCart(t, "1350")
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).Return(printbridge.Result{Success: true})

	res, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})
	require.NoError(t, err)

	assert.True(t, res.NumberFallback)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+$`), res.Order.OrderNumber)
	assert.Equal(t, "ORD-1735689600123", res.Order.OrderNumber)
	assert.Len(t, f.db.orders, 1)
}

func TestCreateOrder_PrintFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "1350")
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).
		Return(printbridge.Result{Success: false, Error: "print server unavailable"}).Once()

	res, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})
	require.NoError(t, err)

	assert.False(t, res.Print.Success)
	assert.Equal(t, "print server unavailable", res.Print.Error)
	assert.Len(t, f.db.orders, 1)
	assert.Zero(t, f.db.rollbacks)

	view, _ := f.svc.GetCart(actor)
	assert.Empty(t, view.Lines)
	f.printer.AssertNumberOfCalls(t, "PrintOrder", 1)
}

func TestCreateOrder_CartUsableWhilePrinting(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "1350")

	printing := make(chan struct{})
	release := make(chan struct{})
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(printing)
			<-release
		}).
		Return(printbridge.Result{Success: true}).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})
		done <- err
	}()

	select {
	case <-printing:
	case <-time.After(time.Second):
		t.Fatal("order was not sent to the printer")
	}

	added := make(chan error, 1)
	go func() {
		_, err := f.svc.AddToCart(context.Background(), actor, 1)
		added <- err
	}()

	select {
	case err := <-added:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(release)
		t.Fatal("cart stayed locked while the ticket was printing")
	}

	view, err := f.svc.GetCart(actor)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)

	close(release)
	require.NoError(t, <-done)
}

func TestCreateOrder_FailedWriteRollsBackEverything(t *testing.T) {
	tests := []struct {
		name   string
		inject func(*store)
	}{
		{name: "items", inject: func(s *store) { s.failItems = true }},
		{name: "audit", inject: func(s *store) { s.failAudit = true }},
		{name: "commit", inject: func(s *store) { s.failCommit = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fillCart(t, "1350")
			tt.inject(f.db)

			_, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})

			assert.True(t, errors.Is(err, errDB))
			assert.Zero(t, f.db.writes())
			assert.Equal(t, 1, f.db.rollbacks)
			f.printer.AssertNotCalled(t, "PrintOrder", mock.Anything, mock.Anything)

			view, _ := f.svc.GetCart(actor)
			assert.Len(t, view.Lines, 1)
		})
	}
}

func TestCreateOrder_LinesAreSnapshots(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "1350")
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).Return(printbridge.Result{Success: true})

	res, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})
	require.NoError(t, err)

	p := f.catalog.products[1]
	p.Name = "Renamed"
	p.SellPrice = decimal.RequireFromString("999.00")
	f.catalog.products[1] = p

	stored, err := f.svc.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	require.Len(t, stored.OrderItems, 1)
	assert.Equal(t, "Canela em pau", stored.OrderItems[0].ProductName)
	assert.Equal(t, "100.00", stored.OrderItems[0].UnitPriceBRL.StringFixed(2))
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetOrder(context.Background(), 42)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "1350")
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).Return(printbridge.Result{Success: true})
	res, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), actor, res.Order.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)
	require.Len(t, f.db.audits, 2)
	assert.Equal(t, auditlog.ActionUpdateOrderStatus, f.db.audits[1].Action)

	_, err = f.svc.UpdateStatus(context.Background(), actor, res.Order.ID, order.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.svc.UpdateStatus(context.Background(), actor, 999, order.StatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReprintOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "1350")
	f.printer.On("PrintOrder", mock.Anything, mock.Anything).Return(printbridge.Result{Success: false, Error: "offline"}).Once()
	res, err := f.svc.CreateOrder(context.Background(), actor, CheckoutInfo{})
	require.NoError(t, err)

	f.printer.On("PrintOrder", mock.Anything, mock.MatchedBy(func(d receipt.OrderData) bool {
		return d.OrderNumber == res.Order.OrderNumber
	})).Return(printbridge.Result{Success: true, Message: "ok"}).Once()

	o, printRes, err := f.svc.ReprintOrder(context.Background(), actor, res.Order.ID)
	require.NoError(t, err)
	assert.True(t, printRes.Success)
	assert.Equal(t, res.Order.ID, o.ID)
	require.Len(t, f.db.audits, 2)
	assert.Equal(t, auditlog.ActionReprintOrder, f.db.audits[1].Action)

	_, _, err = f.svc.ReprintOrder(context.Background(), actor, 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPrinterPassThrough(t *testing.T) {
	f := newFixture(t)
	f.printer.On("Health", mock.Anything).Return(printbridge.HealthResult{Success: true, Online: true, Printer: "tcp://p"})
	f.printer.On("TestPrint", mock.Anything).Return(printbridge.Result{Success: true})

	assert.True(t, f.svc.PrinterHealth(context.Background()).Online)
	assert.True(t, f.svc.TestPrint(context.Background()).Success)
}

func TestMustNewOrderService_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { MustNewOrderService() })
}
