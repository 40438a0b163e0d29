package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/service/services/ordersvc"
	carthttp "github.com/msalarini/store-lamayer/internal/transport/http/cart"
	"github.com/msalarini/store-lamayer/internal/transport/http/middleware/auth"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, actor string, info ordersvc.CheckoutInfo) (ordersvc.CreateOrderResult, error)
}

type printResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type createOrderResponse struct {
	Order               order.Order   `json:"order"`
	Print               printResponse `json:"print"`
	Warning             string        `json:"warning,omitempty"`
	OrderNumberFallback bool          `json:"orderNumberFallback,omitempty"`
}

// CreateOrder submits the actor's cart. The body is optional and may carry
// last-moment checkout fields. A failed print still answers 201 with a warning.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := carthttp.CheckoutRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.BadRequest(w, r, "Corpo da requisição inválido", err)
		return
	}
	if err := req.Validate(); err != nil {
		respond.BadRequest(w, r, "Dados do cliente inválidos", err)
		return
	}

	res, err := service.CreateOrder(r.Context(), auth.ActorFromContext(r.Context()), req.ToModel())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	body := createOrderResponse{
		Order: res.Order,
		Print: printResponse{
			Success: res.Print.Success,
			Message: res.Print.Message,
			Error:   res.Print.Error,
		},
		OrderNumberFallback: res.NumberFallback,
	}
	if !res.Print.Success {
		body.Warning = "Pedido salvo, mas a impressão falhou. Reimprima pelo histórico de pedidos."
	}

	respond.JSON(w, r, http.StatusCreated, body)
}
