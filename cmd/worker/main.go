package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/plantops/plantops/internal/analytics"
	"github.com/plantops/plantops/internal/app"
	"github.com/plantops/plantops/internal/inventory"
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
		slog.Default().Info("test mode detected, skipping worker startup")
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
	engine := inventory.NewEngine(inventory.EngineConfig{AllowNegativeStock: cfg.AllowNegativeStock}, observability.NewMetrics())
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)

	inventoryRepo := inventory.NewRepository(pool)
	procurementRepo := procurement.NewRepository(pool)
	procurementService := procurement.NewService(logger, procurementRepo, inventoryRepo, engine, mailer, shared.NewAuditLogger(pool), analyticsCache)

	mailJob := &jobs.MailJob{
		Logger: logger,
		Sender: notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
	}
	scanJob := jobs.NewLowStockScanJob(procurementService, cfg.AdminEmail, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskTypeLowStockScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 8 * * *", Task: jobs.NewLowStockScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
