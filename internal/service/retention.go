package service

import (
	"context"
	"log/slog"
	"time"
)

// RetentionWorker purges old activity log entries on a fixed interval.
type RetentionWorker struct {
	audit    *AuditService
	interval time.Duration
	logger   *slog.Logger
}

func NewRetentionWorker(audit *AuditService, interval time.Duration, logger *slog.Logger) *RetentionWorker {
	return &RetentionWorker{
		audit:    audit,
		interval: interval,
		logger:   logger,
	}
}

// Run purges once per interval until ctx is cancelled. It returns
// immediately when the interval is not positive.
func (w *RetentionWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := w.audit.PurgeOlderThan(ctx, 0)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("activity log cleanup failed", slog.Any("error", err))
				continue
			}
			w.logger.Info("activity log cleanup", slog.Int64("removed", removed))
		}
	}
}
