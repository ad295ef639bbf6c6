package otel

import (
	"github.com/terraskye/projections"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/terraskye/projections"
)

// Semantic attribute keys following OpenTelemetry conventions
const (
	// Read model attributes
	AttrReadModelID      = attribute.Key("projections.readmodel.id")
	AttrReadModelVersion = attribute.Key("projections.readmodel.version")

	// Stream attributes
	AttrStreamID = attribute.Key("projections.stream.id")

	// EventData attributes
	AttrEventType      = attribute.Key("projections.event.type")
	AttrEventID        = attribute.Key("projections.event.id")
	AttrEventCount     = attribute.Key("projections.events.count")
	AttrEventGlobalPos = attribute.Key("projections.event.global_position")
	AttrEventStreamPos = attribute.Key("projections.event.stream_position")

	// Update attributes
	AttrUpdateCount = attribute.Key("projections.updates.count")
	AttrModified    = attribute.Key("projections.update.modified")

	// Error attributes
	AttrErrorType    = attribute.Key("projections.error.type")
	AttrConflictType = attribute.Key("projections.conflict.type")

	// Operation attributes
	AttrOperation = attribute.Key("projections.operation")
)

var (
	meter  = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(projections.InstrumentationVersion))
	tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(projections.InstrumentationVersion))

	// Update processing metrics
	UpdatesProcessed, _ = meter.Int64Counter(
		"projections.updates.processed",
		metric.WithDescription("Total number of update units processed"),
		metric.WithUnit("{update}"),
	)

	UpdatesFailed, _ = meter.Int64Counter(
		"projections.updates.failed",
		metric.WithDescription("Number of update batches that failed"),
		metric.WithUnit("{update}"),
	)

	UpdatesInFlight, _ = meter.Int64UpDownCounter(
		"projections.updates.in_flight",
		metric.WithDescription("Number of update batches currently being processed"),
		metric.WithUnit("{update}"),
	)

	UpdatesDuration, _ = meter.Float64Histogram(
		"projections.updates.duration",
		metric.WithDescription("Update batch processing duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	)

	// Read model store metrics
	StoreLoads, _ = meter.Int64Counter(
		"projections.store.loads",
		metric.WithDescription("Number of read model load operations"),
		metric.WithUnit("{operation}"),
	)

	StoreReplaces, _ = meter.Int64Counter(
		"projections.store.replaces",
		metric.WithDescription("Number of read model replace operations"),
		metric.WithUnit("{operation}"),
	)

	StoreDeletes, _ = meter.Int64Counter(
		"projections.store.deletes",
		metric.WithDescription("Number of read model delete operations"),
		metric.WithUnit("{operation}"),
	)

	StoreDuration, _ = meter.Float64Histogram(
		"projections.store.duration",
		metric.WithDescription("Read model store operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	StoreErrors, _ = meter.Int64Counter(
		"projections.store.errors",
		metric.WithDescription("Number of read model store errors"),
		metric.WithUnit("{error}"),
	)

	// Concurrency metrics
	VersionConflicts, _ = meter.Int64Counter(
		"projections.version.conflicts",
		metric.WithDescription("Number of optimistic concurrency conflicts"),
		metric.WithUnit("{conflict}"),
	)

	// Backfill metrics
	BackfillLoads, _ = meter.Int64Counter(
		"projections.backfill.loads",
		metric.WithDescription("Number of event source load operations"),
		metric.WithUnit("{operation}"),
	)

	EventsBackfilled, _ = meter.Int64Counter(
		"projections.backfill.events",
		metric.WithDescription("Number of events loaded from the event source"),
		metric.WithUnit("{event}"),
	)

	BackfillDuration, _ = meter.Float64Histogram(
		"projections.backfill.duration",
		metric.WithDescription("Event source load duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	BackfillErrors, _ = meter.Int64Counter(
		"projections.backfill.errors",
		metric.WithDescription("Number of event source errors"),
		metric.WithUnit("{error}"),
	)
)
