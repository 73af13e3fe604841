package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/auth"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/campaigns"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/config"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/database"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/logging"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/reports"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/reports/dashboard"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
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

	// Storage
	clock := campaigns.SystemClock{}
	var (
		campaignRepo campaigns.Repository
		reportsRepo  reports.Repository
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory storage, state is lost on restart")
		campaignRepo = campaigns.NewMemoryRepository(clock)
		reportsRepo = reports.NewStoreRepository(campaignRepo)
	default:
		logger.Info("Connecting to database",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("db", cfg.Database.DBName),
		)
		gdb, err := database.OpenGorm(cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}
		if cfg.Database.AutoMigrate {
			if err := campaigns.AutoMigrate(gdb); err != nil {
				logger.Fatal("Failed to migrate database", zap.Error(err))
			}
		}
		sdb, err := database.OpenSQLX(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to open reporting connection", zap.Error(err))
		}
		defer sdb.Close()

		campaignRepo = campaigns.NewGormRepository(gdb, clock)
		reportsRepo = reports.NewPostgresRepository(sdb)
	}

	// Auth
	tokens, err := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.TokenTTL.Std())
	if err != nil {
		logger.Fatal("Failed to init token manager", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(tokens, logger)
	authHandler := auth.NewHandler(tokens, logger)

	// Reports
	reportsCache := dashboard.NewAggregateCache(cfg.Reports.CacheTTL.Std())
	defer reportsCache.Stop()
	reportsService := reports.NewService(reportsRepo, reportsCache, logger)
	reportsHandler := reports.NewHandler(reportsService, logger)

	// Campaigns; committed writes drop the affected report cache entries
	campaignService := campaigns.NewService(campaignRepo, clock, cfg.Governance, logger, reportsService)
	campaignHandler := campaigns.NewHandler(campaignService, logger)

	// Setup Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		auth.RegisterRoutes(protected, authHandler, authMiddleware)
		campaignHandler.RegisterRoutes(protected, authMiddleware.RequireRole(auth.RoleOperator))
		reportsHandler.RegisterRoutes(protected.Group("/reports"))
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"driver":    cfg.Database.Driver,
			"timestamp": time.Now().UTC(),
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expiry sweeper
	if cfg.Sweeper.Enabled {
		sweeper := scheduler.NewSweeper(campaignService, cfg.Sweeper.Schedule, logger)
		if err := sweeper.Start(ctx); err != nil {
			logger.Fatal("Failed to start expiry sweeper", zap.Error(err))
		}
		defer sweeper.Stop()
	}

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
