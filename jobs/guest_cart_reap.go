package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlaswear/atlaswear/internal/cart"
)

// GuestCartReapJob deletes guest carts that sat untouched past the
// retention window. Runs on a cron schedule.
type GuestCartReapJob struct {
	Carts  *cart.Service
	Logger *slog.Logger
}

func NewGuestCartReapJob(carts *cart.Service, logger *slog.Logger) *GuestCartReapJob {
	return &GuestCartReapJob{Carts: carts, Logger: logger}
}

// Handle executes one reap pass.
func (j *GuestCartReapJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Carts == nil {
		return errors.New("guest cart reap: handler not configured")
	}
	var payload GuestCartReapPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = 30 * 24 * time.Hour
	}

	start := time.Now()
	deleted, err := j.Carts.ReapIdleGuestCarts(ctx, payload.Retention)
	if err != nil {
		j.logger().Error("reap failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("reaped idle guest carts",
		slog.Int64("deleted", deleted),
		slog.Duration("retention", payload.Retention),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *GuestCartReapJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeGuestCartReap))
	}
	return slog.Default().With(slog.String("job", TaskTypeGuestCartReap))
}
