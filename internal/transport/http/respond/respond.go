package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/msalarini/store-lamayer/internal/service/services/ordersvc"
)

type errorResponse struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Error sending response", "error", err)
	}
}

// BadRequest answers 400 with msg and logs the decoding or validation cause.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string, cause error) {
	slog.WarnContext(r.Context(), "Bad request", "path", r.URL.Path, "error", cause)
	JSON(w, r, http.StatusBadRequest, errorResponse{Error: msg})
}

// Error maps service errors to a status and a short user-facing message.
// Unknown errors become 500 and are logged; their text is never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.InfoContext(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	JSON(w, r, status, errorResponse{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ordersvc.ErrUnauthenticated):
		return http.StatusUnauthorized, "Não autorizado"
	case errors.Is(err, ordersvc.ErrEmptyCart):
		return http.StatusBadRequest, "Carrinho vazio"
	case errors.Is(err, ordersvc.ErrInvalidExchangeRate):
		return http.StatusBadRequest, "Taxa de câmbio inválida"
	case errors.Is(err, ordersvc.ErrProductNotFound):
		return http.StatusNotFound, "Produto não encontrado"
	case errors.Is(err, ordersvc.ErrOrderNotFound):
		return http.StatusNotFound, "Pedido não encontrado"
	case errors.Is(err, ordersvc.ErrInvalidStatusTransition):
		return http.StatusConflict, "Transição de status inválida"
	default:
		return http.StatusInternalServerError, "Erro ao processar pedido"
	}
}

// PathID parses a positive int64 URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}

	return id, nil
}
