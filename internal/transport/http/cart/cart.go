package cart

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/msalarini/store-lamayer/internal/service/models/cart"
	"github.com/msalarini/store-lamayer/internal/service/models/currency"
	"github.com/msalarini/store-lamayer/internal/service/services/ordersvc"
	"github.com/msalarini/store-lamayer/internal/transport/http/middleware/auth"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
)

type service interface {
	GetCart(actor string) (cart.View, error)
	AddToCart(ctx context.Context, actor string, productID int64) (cart.View, error)
	UpdateQuantity(actor string, productID int64, quantity int) (cart.View, error)
	RemoveFromCart(actor string, productID int64) (cart.View, error)
	ClearCart(actor string) (cart.View, error)
	SetCheckoutInfo(actor string, info ordersvc.CheckoutInfo) (cart.View, error)
}

var validate = validator.New()

type lineResponse struct {
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	Stock        int     `json:"stock"`
	UnitPriceBRL float64 `json:"unitPriceBRL"`
	SubtotalBRL  float64 `json:"subtotalBRL"`
}

// Response is the cart as shown by the POS screen, with both totals.
type Response struct {
	Items         []lineResponse `json:"items"`
	TotalItems    int            `json:"totalItems"`
	TotalBRL      float64        `json:"totalBRL"`
	TotalPYG      float64        `json:"totalPYG"`
	FormattedBRL  string         `json:"formattedBRL"`
	FormattedPYG  string         `json:"formattedPYG"`
	ExchangeRate  string         `json:"exchangeRate"`
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
}

func NewResponse(v cart.View) Response {
	items := make([]lineResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		items = append(items, lineResponse{
			ProductID:    l.Product.ID,
			ProductName:  l.Product.Name,
			Quantity:     l.Quantity,
			Stock:        l.Product.Quantity,
			UnitPriceBRL: l.Product.SellPrice.InexactFloat64(),
			SubtotalBRL:  l.SubtotalLocal().InexactFloat64(),
		})
	}

	return Response{
		Items:         items,
		TotalItems:    v.TotalItems,
		TotalBRL:      v.Totals.Local.InexactFloat64(),
		TotalPYG:      v.Totals.Foreign.InexactFloat64(),
		FormattedBRL:  currency.CurrencyBRL.Format(v.Totals.Local),
		FormattedPYG:  currency.CurrencyPYG.Format(v.Totals.Foreign),
		ExchangeRate:  v.RateInput,
		CustomerName:  v.CustomerName,
		CustomerPhone: v.CustomerPhone,
	}
}

func write(w http.ResponseWriter, r *http.Request, v cart.View, err error) {
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, NewResponse(v))
}

func Get(w http.ResponseWriter, r *http.Request, service service) {
	v, err := service.GetCart(auth.ActorFromContext(r.Context()))
	write(w, r, v, err)
}

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
}

func AddItem(w http.ResponseWriter, r *http.Request, service service) {
	req := addItemRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "Corpo da requisição inválido", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.BadRequest(w, r, "productId inválido", err)
		return
	}

	v, err := service.AddToCart(r.Context(), auth.ActorFromContext(r.Context()), req.ProductID)
	write(w, r, v, err)
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// UpdateItem sets a line quantity. Zero or negative quantities remove the line.
func UpdateItem(w http.ResponseWriter, r *http.Request, service service) {
	productID, err := respond.PathID(r, "productId")
	if err != nil {
		respond.BadRequest(w, r, "productId inválido", err)
		return
	}

	req := updateItemRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "Corpo da requisição inválido", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.BadRequest(w, r, "quantity é obrigatório", err)
		return
	}

	v, err := service.UpdateQuantity(auth.ActorFromContext(r.Context()), productID, *req.Quantity)
	write(w, r, v, err)
}

func RemoveItem(w http.ResponseWriter, r *http.Request, service service) {
	productID, err := respond.PathID(r, "productId")
	if err != nil {
		respond.BadRequest(w, r, "productId inválido", err)
		return
	}

	v, err := service.RemoveFromCart(auth.ActorFromContext(r.Context()), productID)
	write(w, r, v, err)
}

func Clear(w http.ResponseWriter, r *http.Request, service service) {
	v, err := service.ClearCart(auth.ActorFromContext(r.Context()))
	write(w, r, v, err)
}

// CheckoutRequest carries the customer fields and the exchange rate text.
// Absent fields keep their current value.
type CheckoutRequest struct {
	CustomerName  *string `json:"customerName"  validate:"omitempty,max=255"`
	CustomerPhone *string `json:"customerPhone" validate:"omitempty,max=50"`
	ExchangeRate  *string `json:"exchangeRate"  validate:"omitempty,max=32"`
}

func (c CheckoutRequest) ToModel() ordersvc.CheckoutInfo {
	return ordersvc.CheckoutInfo{
		CustomerName:  c.CustomerName,
		CustomerPhone: c.CustomerPhone,
		ExchangeRate:  c.ExchangeRate,
	}
}

func (c CheckoutRequest) Validate() error {
	return validate.Struct(c)
}

func Checkout(w http.ResponseWriter, r *http.Request, service service) {
	req := CheckoutRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "Corpo da requisição inválido", err)
		return
	}
	if err := req.Validate(); err != nil {
		respond.BadRequest(w, r, "Dados do cliente inválidos", err)
		return
	}

	v, err := service.SetCheckoutInfo(auth.ActorFromContext(r.Context()), req.ToModel())
	write(w, r, v, err)
}
