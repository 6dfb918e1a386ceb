package observe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dwoolworth/doccoll"
)

// Logging returns middleware that logs every operation: Debug when it
// succeeds, Warn for validation failures and Error for everything else.
// Documents and their payloads are never logged.
func Logging(logger *slog.Logger) doccoll.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, op *doccoll.OpInfo, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)

		attrs := []slog.Attr{
			slog.String("op", string(op.Operation)),
			slog.String("collection", op.Collection),
			slog.String("model", op.ModelName),
			slog.Duration("duration", time.Since(start)),
		}
		switch {
		case err == nil:
			logger.LogAttrs(ctx, slog.LevelDebug, "operation completed", attrs...)
		case errors.Is(err, doccoll.ErrValidation):
			logger.LogAttrs(ctx, slog.LevelWarn, "operation rejected", append(attrs, slog.Any("error", err))...)
		default:
			logger.LogAttrs(ctx, slog.LevelError, "operation failed", append(attrs, slog.Any("error", err))...)
		}
		return err
	}
}
