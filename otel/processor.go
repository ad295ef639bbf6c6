package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraskye/projections"
)

// WithProcessorTelemetry wraps an UpdateProcessor with a span per batch,
// in-flight tracking and processed/failed counters.
func WithProcessorTelemetry(next projections.UpdateProcessor, options ...Option) projections.UpdateProcessor {
	cfg := newConfig("projections.process_updates", options...)

	return projections.UpdateProcessorFunc(func(ctx context.Context, updates []projections.ReadModelUpdate) error {
		attrs := append(cfg.spanAttributes(ctx), AttrUpdateCount.Int(len(updates)))

		ctx, span := tracer.Start(ctx, cfg.spanName(ctx),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		UpdatesInFlight.Add(ctx, int64(len(updates)))
		defer UpdatesInFlight.Add(ctx, -int64(len(updates)))

		startTime := time.Now()
		err := next.ProcessUpdates(ctx, updates)
		UpdatesDuration.Record(ctx, float64(time.Since(startTime).Milliseconds()))

		if err != nil {
			UpdatesFailed.Add(ctx, 1, metric.WithAttributes(AttrErrorType.String("process_error")))
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
			return err
		}

		UpdatesProcessed.Add(ctx, int64(len(updates)))
		span.SetStatus(codes.Ok, "")
		return nil
	})
}
