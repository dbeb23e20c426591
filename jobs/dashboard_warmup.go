package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// CacheWarmer pre-computes the dashboard payload. Satisfied by
// dashboard.Service.
type CacheWarmer interface {
	Warm(ctx context.Context) error
}

// DashboardWarmupJob keeps the dashboard cache hot so the first request
// after an invalidation stays fast.
type DashboardWarmupJob struct {
	Warmer CacheWarmer
	Logger *slog.Logger
}

func NewDashboardWarmupJob(warmer CacheWarmer, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{Warmer: warmer, Logger: logger}
}

// Handle processes TaskTypeDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return nil
	}
	if err := j.Warmer.Warm(ctx); err != nil {
		j.Logger.Error("dashboard warmup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("dashboard cache warmed")
	return nil
}
