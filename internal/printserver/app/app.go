package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msalarini/store-lamayer/internal/otel"
	"github.com/msalarini/store-lamayer/internal/printer/device"
	"github.com/msalarini/store-lamayer/internal/printer/ticket"
	"github.com/msalarini/store-lamayer/internal/printserver/printsvc"
	printhttp "github.com/msalarini/store-lamayer/internal/printserver/transport/http"
	"github.com/spf13/viper"
)

// App is the print server process.
type App struct {
	printSvc       *printsvc.PrintService
	server         *printhttp.PrintServer
	otelController *otel.OtelController
}

// MustNewApp creates a new print server application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(viper.GetString("otel.service_name"))

	dev, err := device.Open(viper.GetString("printer.interface"), viper.GetDuration("printer.timeout"))
	if err != nil {
		panic(err)
	}

	loc, err := time.LoadLocation(viper.GetString("printer.timezone"))
	if err != nil {
		slog.Warn("Unknown printer timezone, using local time", "timezone", viper.GetString("printer.timezone"), "error", err)
		loc = time.Local
	}

	printSvc := printsvc.MustNewPrintService(
		printsvc.WithDevice(dev),
		printsvc.WithLayout(ticket.Layout{
			StoreName: viper.GetString("printer.store_name"),
			Tagline:   viper.GetString("printer.tagline"),
			Footer:    viper.GetString("printer.footer"),
			Width:     viper.GetInt("printer.width"),
			Location:  loc,
		}),
	)

	server := printhttp.NewPrintServer(printSvc)
	server.RegisterRoutes()

	return &App{
		printSvc:       printSvc,
		server:         server,
		otelController: otelController,
	}
}

// Run starts the print server and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Print server running", "port", viper.GetString("printer.port"), "printer", a.printSvc.Printer())
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}

	slog.Info("Print server stopped")
}
