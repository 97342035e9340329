package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/plantops/plantops/internal/analytics"
	"github.com/plantops/plantops/internal/app"
	"github.com/plantops/plantops/internal/inventory"
	"github.com/plantops/plantops/internal/maintenance"
	"github.com/plantops/plantops/internal/notify"
	"github.com/plantops/plantops/internal/observability"
	"github.com/plantops/plantops/internal/platform/cache"
	"github.com/plantops/plantops/internal/platform/db"
	"github.com/plantops/plantops/internal/procurement"
	"github.com/plantops/plantops/internal/shared"
	"github.com/plantops/plantops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, analytics cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	if err := analyticsCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	mailQueue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	mailer := notify.NewMailer(logger, mailQueue)

	engine := inventory.NewEngine(inventory.EngineConfig{AllowNegativeStock: cfg.AllowNegativeStock}, metrics)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, engine, auditLogger, analyticsCache)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	maintenanceRepo := maintenance.NewRepository(pool)
	maintenanceService := maintenance.NewService(maintenanceRepo, engine, auditLogger, analyticsCache, maintenance.ServiceConfig{
		EditPolicy: maintenance.ParseEditPolicy(cfg.MaintEditStockPolicy),
	})
	maintenanceHandler := maintenance.NewHandler(logger, maintenanceService)

	procurementRepo := procurement.NewRepository(pool)
	procurementService := procurement.NewService(logger, procurementRepo, inventoryRepo, engine, mailer, auditLogger, analyticsCache)
	procurementHandler := procurement.NewHandler(logger, procurementService, cfg.AdminEmail)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsService := analytics.NewService(analyticsRepo, analyticsCache, analytics.NewPredictiveEngine())
	analyticsHandler := analytics.NewHandler(logger, analyticsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{Logger: logger, Config: cfg, Metrics: metrics}),
		Metrics:    metrics,
		Modules: []app.RouteMounter{
			inventoryHandler,
			maintenanceHandler,
			procurementHandler,
			analyticsHandler,
			jobHandler,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
