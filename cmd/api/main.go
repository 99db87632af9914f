package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/kynkyro/shaderstore-backend/api/routes"
	cartstore "github.com/kynkyro/shaderstore-backend/internal/cart"
	"github.com/kynkyro/shaderstore-backend/internal/checkout"
	"github.com/kynkyro/shaderstore-backend/internal/orders"
	"github.com/kynkyro/shaderstore-backend/pkg/config"
	"github.com/kynkyro/shaderstore-backend/pkg/db"
	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
	"github.com/kynkyro/shaderstore-backend/pkg/metrics"
	"github.com/kynkyro/shaderstore-backend/pkg/migrate"
	"github.com/kynkyro/shaderstore-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	persistence, err := cartstore.NewRedisPersistence(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart persistence", err)
		os.Exit(1)
	}

	defaultCurrency, err := enums.ParseCurrency(cfg.Checkout.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid checkout currency", err)
		os.Exit(1)
	}

	store, err := cartstore.NewStore(persistence, defaultCurrency, logg, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart store", err)
		os.Exit(1)
	}

	ordersClient, err := orders.NewClient(cfg.Orders, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build order service client", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders service", err)
		os.Exit(1)
	}

	vatRate, err := cfg.Checkout.VATRateDecimal()
	if err != nil {
		logg.Error(context.Background(), "invalid VAT rate", err)
		os.Exit(1)
	}

	orchestrator, err := checkout.NewOrchestrator(store, ordersClient, ordersService, vatRate, logg, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout orchestrator", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Idempotency:     redisClient,
		CartStore:       store,
		Checkout:        orchestrator,
		Orders:          ordersService,
		MetricsGatherer: registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		closeErr := server.Shutdown(shutdownCtx)
		closeErr = multierr.Append(closeErr, redisClient.Close())
		closeErr = multierr.Append(closeErr, dbClient.Close())
		if closeErr != nil {
			logg.Error(ctx, "shutdown completed with errors", closeErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
