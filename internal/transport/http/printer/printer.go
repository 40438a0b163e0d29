package printer

import (
	"context"
	"net/http"

	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
)

type service interface {
	PrinterHealth(ctx context.Context) printbridge.HealthResult
	TestPrint(ctx context.Context) printbridge.Result
}

// Health always answers 200; printer reachability is reported in the body.
func Health(w http.ResponseWriter, r *http.Request, service service) {
	respond.JSON(w, r, http.StatusOK, service.PrinterHealth(r.Context()))
}

func TestPrint(w http.ResponseWriter, r *http.Request, service service) {
	res := service.TestPrint(r.Context())

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}

	respond.JSON(w, r, status, res)
}
