package orders

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/transport/http/middleware/auth"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
)

type service interface {
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	UpdateStatus(ctx context.Context, actor string, id int64, status order.Status) (order.Order, error)
	ReprintOrder(ctx context.Context, actor string, id int64) (order.Order, printbridge.Result, error)
}

var validate = validator.New()

func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.BadRequest(w, r, "id inválido", err)
		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.BadRequest(w, r, "id inválido", err)
		return
	}

	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "Corpo da requisição inválido", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.BadRequest(w, r, "Status inválido", err)
		return
	}

	o, err := service.UpdateStatus(r.Context(), auth.ActorFromContext(r.Context()), id, order.Status(req.Status))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, o)
}

type reprintResponse struct {
	Order   order.Order `json:"order"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Reprint answers 200 when the ticket was printed and 502 when the print server failed.
func Reprint(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.BadRequest(w, r, "id inválido", err)
		return
	}

	o, res, err := service.ReprintOrder(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}

	respond.JSON(w, r, status, reprintResponse{
		Order:   o,
		Success: res.Success,
		Message: res.Message,
		Error:   res.Error,
	})
}
