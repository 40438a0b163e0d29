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

	"github.com/msalarini/store-lamayer/internal/dal/interfaces/iproductrepo"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/dal/printbridge"
	"github.com/msalarini/store-lamayer/internal/dal/rabbitmq"
	"github.com/msalarini/store-lamayer/internal/dal/redis"
	eventsrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/events/rabbitmq"
	outboxrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/outbox/postgres"
	productcache "github.com/msalarini/store-lamayer/internal/dal/repositories/product/cache"
	productrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/product/postgres"
	"github.com/msalarini/store-lamayer/internal/otel"
	"github.com/msalarini/store-lamayer/internal/service/services/ordersvc"
	httptransport "github.com/msalarini/store-lamayer/internal/transport/http"
	"github.com/msalarini/store-lamayer/internal/transport/http/middleware/auth"
	outboxworker "github.com/msalarini/store-lamayer/internal/worker/outbox"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// App represents the POS application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	postgresClient *postgres.Client
	redisClient    *goredis.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(viper.GetString("otel.service_name"))
	postgresClient := postgres.MustNewClient()

	var products iproductrepo.IProductRepository = productrepo.NewProductRepository(postgresClient.Pool())
	var redisClient *goredis.Client
	if viper.GetBool("redis.enabled") {
		redisClient = redis.MustNewClient()
		products = productcache.NewCachedProductRepository(products, redisClient, viper.GetDuration("redis.product_ttl"))
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithProductRepository(products),
		ordersvc.WithPrintBridge(printbridge.MustNewClient()),
		ordersvc.WithEventRouting(
			viper.GetString("rabbitmq.exchange"),
			viper.GetString("rabbitmq.routing_key"),
			viper.GetInt("rabbitmq.outbox.max_retries"),
		),
	)

	var (
		rabbitMqClient *rabbitmq.Client
		worker         *outboxworker.Worker
	)
	if viper.GetBool("rabbitmq.enabled") {
		rabbitMqClient = rabbitmq.MustNewClient()
		events, err := eventsrepo.NewEventsRepository(
			rabbitMqClient,
			viper.GetString("rabbitmq.exchange"),
			viper.GetString("rabbitmq.queue"),
			viper.GetString("rabbitmq.routing_key"),
		)
		if err != nil {
			panic(err)
		}
		worker = outboxworker.NewWorker(outboxrepo.NewOutboxRepository(postgresClient.Pool()), events)
	} else {
		slog.Warn("RabbitMQ disabled, order events stay in the outbox")
	}

	transport := httptransport.NewHTTPTransport(orderSvc, auth.MustNewAuthenticator().Middleware)
	transport.RegisterRoutes()

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		outboxWorker:   worker,
		postgresClient: postgresClient,
		redisClient:    redisClient,
		rabbitMqClient: rabbitMqClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	go func() {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))
		if err := a.transport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if a.outboxWorker != nil {
		go a.outboxWorker.Start(workerCtx)
	}

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.outboxWorker != nil {
		a.outboxWorker.Stop()
	}

	if a.rabbitMqClient != nil {
		if err := a.rabbitMqClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Error("Redis connection close error", "error", err)
		}
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed")

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
