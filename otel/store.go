package otel

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraskye/projections"
)

var _ projections.ReadModelStore[struct{}] = (*TelemetryStore[struct{}])(nil)

// TelemetryStore decorates a ReadModelStore with spans and metrics per
// operation. Version conflicts are counted separately: they are the signal
// that concurrent writers race on the same read model.
type TelemetryStore[T any] struct {
	next projections.ReadModelStore[T]
	cfg  *config
}

// WithStoreTelemetry wraps next; the configured operation (default
// "ReadModelStore") prefixes the span names.
func WithStoreTelemetry[T any](next projections.ReadModelStore[T], options ...Option) projections.ReadModelStore[T] {
	return &TelemetryStore[T]{next: next, cfg: newConfig("ReadModelStore", options...)}
}

func (t *TelemetryStore[T]) Get(ctx context.Context, id string) (projections.ReadModelEnvelope[T], error) {
	ctx, span := tracer.Start(ctx, t.cfg.spanName(ctx)+".Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(t.cfg.spanAttributes(ctx),
			AttrOperation.String("get"),
			AttrReadModelID.String(id),
		)...),
	)
	defer span.End()

	start := time.Now()
	envelope, err := t.next.Get(ctx, id)
	StoreDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("get")),
	)
	StoreLoads.Add(ctx, 1)

	if err != nil {
		StoreErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return envelope, err
	}

	span.SetAttributes(AttrReadModelVersion.Int64(int64(envelope.Version)))
	return envelope, nil
}

func (t *TelemetryStore[T]) Replace(ctx context.Context, envelope projections.ReadModelEnvelope[T], expectedVersion uint64) error {
	ctx, span := tracer.Start(ctx, t.cfg.spanName(ctx)+".Replace",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(t.cfg.spanAttributes(ctx),
			AttrOperation.String("replace"),
			AttrReadModelID.String(envelope.ReadModelID),
			AttrReadModelVersion.Int64(int64(envelope.Version)),
		)...),
	)
	defer span.End()

	start := time.Now()
	err := t.next.Replace(ctx, envelope, expectedVersion)
	StoreDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("replace")),
	)
	StoreReplaces.Add(ctx, 1)

	if err != nil {
		var conflict *projections.VersionConflictError
		if errors.As(err, &conflict) {
			VersionConflicts.Add(ctx, 1, metric.WithAttributes(AttrConflictType.String("version")))
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		StoreErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *TelemetryStore[T]) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, t.cfg.spanName(ctx)+".Delete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(t.cfg.spanAttributes(ctx),
			AttrOperation.String("delete"),
			AttrReadModelID.String(id),
		)...),
	)
	defer span.End()

	start := time.Now()
	err := t.next.Delete(ctx, id)
	StoreDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("delete")),
	)
	StoreDeletes.Add(ctx, 1)

	if err != nil {
		StoreErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
