package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"ticketmarket/auth"
	"ticketmarket/config"
	"ticketmarket/gateway"
	"ticketmarket/pubsub"
	"ticketmarket/service"
	"ticketmarket/tracing"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log.Init(cfg.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// prices are rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	traceProvider, err := tracing.ConfigureTraceProvider(cfg.JaegerEndpoint)
	if err != nil {
		logrus.WithError(err).Fatal("Could not configure tracing")
	}

	sqlDB, err := otelsql.Open("postgres", cfg.PostgresURL, otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		logrus.WithError(err).Fatal("Could not open database")
	}
	dbConn := sqlx.NewDb(sqlDB, "postgres")
	defer dbConn.Close()

	redisClient := pubsub.NewRedisClient(cfg.RedisAddr)
	defer redisClient.Close()

	checkoutClient := gateway.NewCheckoutClient(gateway.CheckoutConfig{
		BaseURL:    cfg.Checkout.URL,
		APIKey:     cfg.Checkout.APIKey,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
		Timeout:    cfg.Checkout.Timeout,
	})

	err = service.New(
		cfg.HTTPAddr,
		dbConn,
		redisClient,
		auth.NewJWTVerifier(cfg.JWTSecret),
		checkoutClient,
		cfg.Currency,
		traceProvider,
	).Run(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Service stopped with error")
	}
}
