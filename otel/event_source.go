package otel

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraskye/projections"
)

var _ projections.EventSource = (*TelemetrySource)(nil)

// TelemetrySource decorates an EventSource. The span covers the whole
// stream read: it opens on the first Next call and closes when the
// iterator is exhausted or fails, so lazy consumers are measured for
// what they actually read.
type TelemetrySource struct {
	next projections.EventSource
	cfg  *config
}

// WithEventSourceTelemetry wraps next; spans are named after the
// configured operation (default "EventSource.LoadStreamFrom").
func WithEventSourceTelemetry(next projections.EventSource, options ...Option) projections.EventSource {
	return &TelemetrySource{next: next, cfg: newConfig("EventSource.LoadStreamFrom", options...)}
}

func (t *TelemetrySource) LoadStreamFrom(ctx context.Context, id string, fromVersion uint64) (*projections.Iterator[*projections.Envelope], error) {
	BackfillLoads.Add(ctx, 1)

	iter, err := t.next.LoadStreamFrom(ctx, id, fromVersion)
	if err != nil {
		BackfillErrors.Add(ctx, 1)
		return nil, err
	}

	var (
		started    bool
		start      time.Time
		loadSpan   trace.Span
		eventCount int
	)

	return projections.NewIteratorFunc(func(nextCtx context.Context) (*projections.Envelope, error) {
		if !started {
			started = true
			start = time.Now()
			_, loadSpan = tracer.Start(nextCtx, t.cfg.spanName(nextCtx),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(append(t.cfg.spanAttributes(nextCtx),
					AttrStreamID.String(id),
					AttrEventStreamPos.Int64(int64(fromVersion)),
				)...),
			)
		}

		if !iter.Next(nextCtx) {
			err := iter.Err()
			if err != nil {
				BackfillErrors.Add(nextCtx, 1)
				loadSpan.RecordError(err)
				loadSpan.SetStatus(codes.Error, err.Error())
				loadSpan.End()
				return nil, err
			}
			BackfillDuration.Record(nextCtx, float64(time.Since(start).Milliseconds()))
			loadSpan.SetAttributes(AttrEventCount.Int(eventCount))
			loadSpan.End()
			return nil, io.EOF
		}

		eventCount++
		EventsBackfilled.Add(nextCtx, 1)
		return iter.Value(), nil
	}), nil
}
