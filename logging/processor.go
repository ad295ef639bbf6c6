package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/terraskye/projections"
)

// WithProcessorLogging wraps an UpdateProcessor with structured logging of
// each batch: size before, duration after, errors on failure.
func WithProcessorLogging(logger *slog.Logger, next projections.UpdateProcessor) projections.UpdateProcessor {
	return projections.UpdateProcessorFunc(func(ctx context.Context, updates []projections.ReadModelUpdate) error {
		l := logger.With("updates", len(updates))

		l.DebugContext(ctx, "update batch processing started")
		start := time.Now()

		err := next.ProcessUpdates(ctx, updates)

		if err != nil {
			l.ErrorContext(ctx, "error processing update batch", "error", err)
		} else {
			l.DebugContext(ctx, "update batch processed successfully", "duration", time.Since(start))
		}

		return err
	})
}
