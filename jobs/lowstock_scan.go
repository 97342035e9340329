package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AlertRunner is the slice of the procurement service the scan needs.
type AlertRunner interface {
	CheckAndAlert(ctx context.Context, adminEmail string) (int, error)
}

// LowStockScanJob runs the daily storeroom scan. It only reports; draft
// order generation stays an operator decision.
type LowStockScanJob struct {
	Runner     AlertRunner
	AdminEmail string
	Logger     *slog.Logger
	clock      func() time.Time
}

// NewLowStockScanJob initialises the scan handler.
func NewLowStockScanJob(runner AlertRunner, adminEmail string, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{
		Runner:     runner,
		AdminEmail: adminEmail,
		Logger:     logger,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("lowstock scan: handler not configured")
	}
	start := j.clock()
	logger := j.logger()
	logger.Info("starting low stock scan")

	count, err := j.Runner.CheckAndAlert(ctx, j.AdminEmail)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed low stock scan",
		slog.Int("low_stock_items", count),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeLowStockScan))
}
