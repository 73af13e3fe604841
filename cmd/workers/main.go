package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/campaigns"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/config"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/database"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/logging"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/scheduler"
)

// The expiry worker runs the sweeper out of process so API replicas can
// start with sweeper.enabled=false. It needs the postgres driver since
// in-memory state is not shared between processes.
func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.Driver != config.DriverPostgres {
		logger.Fatal("Expiry worker requires the postgres driver", zap.String("driver", cfg.Database.Driver))
	}

	db, err := database.OpenGorm(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	clock := campaigns.SystemClock{}
	service := campaigns.NewService(campaigns.NewGormRepository(db, clock), clock, cfg.Governance, logger)
	sweeper := scheduler.NewSweeper(service, cfg.Sweeper.Schedule, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		n := sweeper.RunOnce(ctx)
		logger.Info("Expiry sweep finished", zap.Int("failed_campaigns", n))
		return
	}

	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal("Failed to start expiry sweeper", zap.Error(err))
	}
	logger.Info("Expiry worker started", zap.String("schedule", cfg.Sweeper.Schedule))

	<-ctx.Done()
	logger.Info("Expiry worker shutting down")
	sweeper.Stop()
}
