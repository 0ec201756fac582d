package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/pix-payments/internal/config"
	orderapp "github.com/dmehra2102/pix-payments/internal/order/application"
	orderhttp "github.com/dmehra2102/pix-payments/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/pix-payments/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/pix-payments/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/pix-payments/internal/payment/application"
	paymenthttp "github.com/dmehra2102/pix-payments/internal/payment/infrastructure/http"
	"github.com/dmehra2102/pix-payments/internal/payment/infrastructure/mercadopago"
	"github.com/dmehra2102/pix-payments/pkg/idempotency"
	"github.com/dmehra2102/pix-payments/pkg/logging"
	"github.com/dmehra2102/pix-payments/pkg/outbox"
	"github.com/dmehra2102/pix-payments/pkg/shutdown"
	"github.com/dmehra2102/pix-payments/pkg/tracing"
)

const serviceName = "payment-service"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logging.New("info").Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Postgres setup
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := orderpg.NewRepository(log, pool, serviceName)
	if err := repo.Migrate(ctx); err != nil {
		log.Error("pg migrate failed", "err", err)
		os.Exit(1)
	}

	// Redis backs idempotent PIX charge creation
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	mp := mercadopago.NewClient(log, cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken, cfg.MercadoPago.NotificationURL)
	reconciler := application.NewReconciler(log, mp, repo,
		application.WithTimeouts(cfg.Timeouts.Gateway, cfg.Timeouts.Store))
	pix := application.NewPixService(log, mp, cfg.DefaultPayer)

	payments := paymenthttp.NewHandler(log, reconciler, pix, idempotency.Middleware(log, idem, "pix"))
	orders := orderhttp.NewHandler(log, orderapp.NewService(repo))

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	payments.Register(r)
	orders.Register(r)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Timeouts.Gateway + cfg.Timeouts.Store + 5*time.Second,
	}

	// Outbox relay publishes OrderStatusChanged events
	if len(cfg.KafkaBrokers) > 0 {
		writer := orderkafka.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()

		dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
		relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), dispatch, serviceName+"-relay")
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	} else {
		log.Warn("KAFKA_ADDR empty, outbox relay disabled")
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("payment-service shutdown complete")
}
