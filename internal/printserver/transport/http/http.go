package printhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"github.com/msalarini/store-lamayer/pkg/http/router"
	"github.com/spf13/viper"
)

type service interface {
	PrintOrder(ctx context.Context, data receipt.OrderData) error
	TestPrint(ctx context.Context) error
	Printer() string
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

type health struct {
	Status    string `json:"status"`
	Printer   string `json:"printer"`
	Timestamp string `json:"timestamp"`
}

var validate = validator.New()

// PrintServer is the HTTP front of the thermal printer.
type PrintServer struct {
	server  *http.Server
	router  *chi.Mux
	service service
	now     func() time.Time
}

func NewPrintServer(service service) *PrintServer {
	mux := router.New("print-server")
	return &PrintServer{
		server: &http.Server{
			Addr:              "0.0.0.0:" + viper.GetString("printer.port"),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router:  mux,
		service: service,
		now:     time.Now,
	}
}

func (p *PrintServer) Run() error {
	return p.server.ListenAndServe()
}

func (p *PrintServer) Shutdown(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}

func (p *PrintServer) Handler() http.Handler {
	return p.router
}

func (p *PrintServer) RegisterRoutes() {
	p.router.Get("/health", p.health)
	p.router.Post("/print", p.print)
	p.router.Post("/test-print", p.testPrint)
}

func (p *PrintServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, health{
		Status:    "ok",
		Printer:   p.service.Printer(),
		Timestamp: p.now().UTC().Format(time.RFC3339Nano),
	})
}

func (p *PrintServer) print(w http.ResponseWriter, r *http.Request) {
	req := receipt.PrintRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderData == nil {
		writeJSON(w, r, http.StatusBadRequest, result{Error: "Dados do pedido não fornecidos"})
		return
	}
	if err := validate.Struct(req.OrderData); err != nil {
		writeJSON(w, r, http.StatusBadRequest, result{Error: "Dados do pedido inválidos", Details: err.Error()})
		return
	}

	if err := p.service.PrintOrder(r.Context(), *req.OrderData); err != nil {
		writeJSON(w, r, http.StatusInternalServerError, result{
			Error:   err.Error(),
			Details: "Error: " + err.Error(),
		})
		return
	}

	writeJSON(w, r, http.StatusOK, result{
		Success: true,
		Message: fmt.Sprintf("Pedido %s impresso com sucesso", req.OrderData.OrderNumber),
	})
}

func (p *PrintServer) testPrint(w http.ResponseWriter, r *http.Request) {
	if err := p.service.TestPrint(r.Context()); err != nil {
		writeJSON(w, r, http.StatusInternalServerError, result{Error: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, result{
		Success: true,
		Message: "Teste de impressão enviado com sucesso",
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Error sending response", "error", err)
	}
}
