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

	"github.com/grocerdash/grocerdash-backend/api/routes"
	"github.com/grocerdash/grocerdash-backend/internal/coupons"
	"github.com/grocerdash/grocerdash-backend/internal/dispatch"
	"github.com/grocerdash/grocerdash-backend/internal/drivers"
	"github.com/grocerdash/grocerdash-backend/internal/inventory"
	"github.com/grocerdash/grocerdash-backend/internal/loyalty"
	"github.com/grocerdash/grocerdash-backend/internal/orders"
	"github.com/grocerdash/grocerdash-backend/pkg/config"
	"github.com/grocerdash/grocerdash-backend/pkg/db"
	"github.com/grocerdash/grocerdash-backend/pkg/env"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/push"
	"github.com/grocerdash/grocerdash-backend/pkg/realtime"
	"github.com/grocerdash/grocerdash-backend/pkg/redis"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	hub, err := realtime.NewRedisHub(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime hub", err)
		os.Exit(1)
	}

	driverRepo := drivers.NewRepo(dbClient.DB())
	coordinator := dispatch.NewCoordinator(driverRepo, hub, logg)
	pusher := push.NewBestEffort(push.NewLogNotifier(logg), logg)

	orderService, err := orders.NewService(orders.Deps{
		Repo:       orders.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Ledger:     inventory.NewLedger(),
		Coupons:    coupons.NewValidator(),
		Dispatcher: coordinator,
		Loyalty:    loyalty.NewService(logg),
		Drivers:    driverRepo,
		Pusher:     pusher,
		Logger:     logg,
		DB:         dbClient.DB(),
		StaleAfter: cfg.Dispatch.StaleAssignedAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, orderService, driverRepo),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(stopCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
