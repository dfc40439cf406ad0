package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Logging returns middleware that logs node start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, info domain.StepInfo, next Handler) (domain.State, error) {
		logger.Debug("node started",
			slog.String("node", info.Node),
			slog.Int("step", info.Step),
			slog.String("thread_id", info.ThreadID),
		)

		start := time.Now()
		update, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("node failed",
				slog.String("node", info.Node),
				slog.Int("step", info.Step),
				slog.Duration("elapsed", elapsed),
				slog.String("err", err.Error()),
			)
		} else {
			logger.Debug("node completed",
				slog.String("node", info.Node),
				slog.Int("step", info.Step),
				slog.Duration("elapsed", elapsed),
				slog.Any("fields", update.Keys()),
			)
		}

		return update, err
	}
}
