package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/msalarini/store-lamayer/pkg/logger"
	"github.com/spf13/viper"
)

// MustInit loads .env and the <name>.yaml config file, then installs the default logger.
func MustInit(name string) {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()

	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/store-lamayer")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the values used when neither the config file nor the environment sets a key.
func SetDefaults() {
	viper.SetDefault("logger.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.cors.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Request-Id"})
	viper.SetDefault("server.http.cors.max_age", 300)

	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.sslmode", "disable")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.product_ttl", "5m")

	viper.SetDefault("rabbitmq.enabled", true)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.queue", "store.orders.created")
	viper.SetDefault("rabbitmq.exchange", "orders")
	viper.SetDefault("rabbitmq.routing_key", "orders.created")
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.claim_lease", "2m")
	viper.SetDefault("rabbitmq.outbox.max_retries", 10)

	viper.SetDefault("print_server.url", "http://localhost:3001")
	viper.SetDefault("print_server.timeout", "10s")
	viper.SetDefault("print_server.breaker.max_failures", 3)
	viper.SetDefault("print_server.breaker.open_timeout", "30s")

	viper.SetDefault("auth.allowed_emails", []string{})

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.service_name", "store-lamayer")
	viper.SetDefault("otel.jaeger_endpoint", "http://jaeger:14268/api/traces")

	viper.SetDefault("printer.port", "3001")
	viper.SetDefault("printer.interface", "tcp://192.168.1.100")
	viper.SetDefault("printer.timeout", "5s")
	viper.SetDefault("printer.width", 48)
	viper.SetDefault("printer.store_name", "STORE LAMAYER")
	viper.SetDefault("printer.tagline", "Especiarias e Temperos")
	viper.SetDefault("printer.footer", "Obrigado pela preferencia!")
	viper.SetDefault("printer.timezone", "America/Sao_Paulo")
}

// SetupLogger installs the JSON slog handler as the process default.
func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("logger.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
