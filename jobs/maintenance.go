package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-press/inkwell/internal/shared"
)

// MaintenanceCleanupHandler prunes expired idempotency keys and session rows.
// Registered on the cron schedule; safe to run repeatedly.
func MaintenanceCleanupHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	store := shared.NewIdempotencyStore(pool)
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, 24*time.Hour); err != nil {
			logger.Warn("cleanup idempotency keys", slog.Any("error", err))
			return err
		}
		tag, err := pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
		if err != nil {
			logger.Warn("cleanup sessions", slog.Any("error", err))
			return err
		}
		logger.Info("maintenance cleanup done", slog.Int64("sessions_pruned", tag.RowsAffected()))
		return nil
	}
}
