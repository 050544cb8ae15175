package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockline-erp/stockline/internal/purchases"
)

// TransitSyncJob runs the ledger reconciliation on a schedule.
type TransitSyncJob struct {
	service *purchases.Service
	logger  *slog.Logger
}

// NewTransitSyncJob constructs the job.
func NewTransitSyncJob(service *purchases.Service, logger *slog.Logger) *TransitSyncJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitSyncJob{service: service, logger: logger}
}

// Handle processes TaskTransitSync tasks.
func (j *TransitSyncJob) Handle(ctx context.Context, _ *asynq.Task) error {
	report, err := j.service.SyncTransitQuantities(ctx)
	if err != nil {
		j.logger.Error("transit sync failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("transit sync complete", slog.Int("corrected", report.Corrected))
	return nil
}
