package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/service/models/cart"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/msalarini/store-lamayer/internal/service/services/ordersvc"
	carthttp "github.com/msalarini/store-lamayer/internal/transport/http/cart"
	createorder "github.com/msalarini/store-lamayer/internal/transport/http/create_order"
	listorders "github.com/msalarini/store-lamayer/internal/transport/http/list_orders"
	"github.com/msalarini/store-lamayer/internal/transport/http/orders"
	"github.com/msalarini/store-lamayer/internal/transport/http/printer"
	"github.com/msalarini/store-lamayer/internal/transport/http/products"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
	"github.com/msalarini/store-lamayer/pkg/http/router"
	"github.com/spf13/viper"
)

type service interface {
	ListProducts(ctx context.Context, filter product.QueryProductsModel) ([]product.Product, error)

	GetCart(actor string) (cart.View, error)
	AddToCart(ctx context.Context, actor string, productID int64) (cart.View, error)
	UpdateQuantity(actor string, productID int64, quantity int) (cart.View, error)
	RemoveFromCart(actor string, productID int64) (cart.View, error)
	ClearCart(actor string) (cart.View, error)
	SetCheckoutInfo(actor string, info ordersvc.CheckoutInfo) (cart.View, error)

	CreateOrder(ctx context.Context, actor string, info ordersvc.CheckoutInfo) (ordersvc.CreateOrderResult, error)
	GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	UpdateStatus(ctx context.Context, actor string, id int64, status order.Status) (order.Order, error)
	ReprintOrder(ctx context.Context, actor string, id int64) (order.Order, printbridge.Result, error)

	PrinterHealth(ctx context.Context) printbridge.HealthResult
	TestPrint(ctx context.Context) printbridge.Result
}

type HTTPTransport struct {
	server        *http.Server
	router        *chi.Mux
	service       service
	authenticator func(http.Handler) http.Handler
}

// NewHTTPTransport builds the POS API. authenticator guards every /api route
// and must put the actor in the request context.
func NewHTTPTransport(service service, authenticator func(http.Handler) http.Handler) *HTTPTransport {
	mux := router.New("store-lamayer")
	server := newServer(mux)
	return &HTTPTransport{
		server:        server,
		router:        mux,
		service:       service,
		authenticator: authenticator,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	h.router.Route("/api", func(r chi.Router) {
		r.Use(h.authenticator)

		r.Get("/products", h.listProducts)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Put("/checkout", h.checkout)
			r.Post("/items", h.addItem)
			r.Put("/items/{productId}", h.updateItem)
			r.Delete("/items/{productId}", h.removeItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.getOrders)
			r.Post("/", h.createOrder)
			r.Get("/{id}", h.getOrder)
			r.Patch("/{id}/status", h.updateStatus)
			r.Post("/{id}/print", h.reprint)
		})

		r.Get("/printer/health", h.printerHealth)
		r.Post("/printer/test-print", h.testPrint)
	})
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	products.ListProducts(w, r, h.service)
}

func (h *HTTPTransport) getCart(w http.ResponseWriter, r *http.Request) {
	carthttp.Get(w, r, h.service)
}

func (h *HTTPTransport) clearCart(w http.ResponseWriter, r *http.Request) {
	carthttp.Clear(w, r, h.service)
}

func (h *HTTPTransport) checkout(w http.ResponseWriter, r *http.Request) {
	carthttp.Checkout(w, r, h.service)
}

func (h *HTTPTransport) addItem(w http.ResponseWriter, r *http.Request) {
	carthttp.AddItem(w, r, h.service)
}

func (h *HTTPTransport) updateItem(w http.ResponseWriter, r *http.Request) {
	carthttp.UpdateItem(w, r, h.service)
}

func (h *HTTPTransport) removeItem(w http.ResponseWriter, r *http.Request) {
	carthttp.RemoveItem(w, r, h.service)
}

func (h *HTTPTransport) getOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	orders.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	orders.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) reprint(w http.ResponseWriter, r *http.Request) {
	orders.Reprint(w, r, h.service)
}

func (h *HTTPTransport) printerHealth(w http.ResponseWriter, r *http.Request) {
	printer.Health(w, r, h.service)
}

func (h *HTTPTransport) testPrint(w http.ResponseWriter, r *http.Request) {
	printer.TestPrint(w, r, h.service)
}

func newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
