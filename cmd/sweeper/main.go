package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/grocerdash/grocerdash-backend/internal/coupons"
	"github.com/grocerdash/grocerdash-backend/internal/dispatch"
	"github.com/grocerdash/grocerdash-backend/internal/drivers"
	"github.com/grocerdash/grocerdash-backend/internal/inventory"
	"github.com/grocerdash/grocerdash-backend/internal/loyalty"
	"github.com/grocerdash/grocerdash-backend/internal/orders"
	"github.com/grocerdash/grocerdash-backend/pkg/config"
	"github.com/grocerdash/grocerdash-backend/pkg/db"
	"github.com/grocerdash/grocerdash-backend/pkg/instance"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/push"
	"github.com/grocerdash/grocerdash-backend/pkg/realtime"
)

// The sweeper reverts orders stuck in assigned back to available on a fixed
// interval, independently of the opportunistic sweep the dashboard triggers.
func main() {
	logg := logger.New(logger.Options{ServiceName: "sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	driverRepo := drivers.NewRepo(dbClient.DB())

	orderService, err := orders.NewService(orders.Deps{
		Repo:       orders.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Ledger:     inventory.NewLedger(),
		Coupons:    coupons.NewValidator(),
		Dispatcher: dispatch.NewCoordinator(driverRepo, realtime.NopHub{}, logg),
		Loyalty:    loyalty.NewService(logg),
		Drivers:    driverRepo,
		Pusher:     push.NewBestEffort(push.NewLogNotifier(logg), logg),
		Logger:     logg,
		DB:         dbClient.DB(),
		StaleAfter: cfg.Dispatch.StaleAssignedAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Dispatch.SweepInterval.String(),
	})
	logg.Info(ctx, "starting stale assignment sweeper")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Dispatch.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept, err := orderService.ExpireStaleAssignedOrders(ctx)
			if err != nil {
				logg.Error(ctx, "sweep failed", err)
				continue
			}
			if swept > 0 {
				logg.Info(logg.WithField(ctx, "swept", swept), "stale assignments reverted")
			}
		case sig := <-shutdown:
			logg.Info(logg.WithField(ctx, "signal", sig.String()), "sweeper stopping")
			return
		}
	}
}
