package projections

import (
	"context"
	"fmt"
)

// ReadStoreManager reconciles one batch of events for a single aggregate with
// the read model envelope currently stored for it. It holds no storage of its
// own: callers load the envelope, hand it in together with the batch, and
// persist whatever the manager returns.
//
// T represents the read model document type.
type ReadStoreManager[T any] struct {
	source  EventSource
	factory ReadModelFactory[T]
	applier Applier[T]
}

// NewReadStoreManager returns a reconciliation manager for read models of type T.
//
// Parameters:
//   - source: The EventSource used to backfill events the batch skipped over.
//   - factory: Constructs an empty read model when none is stored yet.
//   - applier: Folds an ordered slice of envelopes into the model in place.
func NewReadStoreManager[T any](
	source EventSource,
	factory ReadModelFactory[T],
	applier Applier[T],
) *ReadStoreManager[T] {
	return &ReadStoreManager[T]{
		source:  source,
		factory: factory,
		applier: applier,
	}
}

// Update reconciles a batch of events with the stored envelope and returns the
// updated envelope, without touching any store.
//
// The batch must be non-empty, belong to the aggregate the envelope names, and
// be ordered ascending by Version (BuildReadModelUpdates produces exactly
// that).
//
// Parameters:
//   - ctx: Request-scoped context, passed through to the factory, applier and
//     event source.
//   - rmctx: Per-unit context the applier can flag deletion on. Must be non-nil.
//   - events: The ordered event batch for this aggregate.
//   - envelope: The envelope as loaded from the store; the empty envelope when
//     nothing is stored yet.
//
// Returns:
//   - ReadModelUpdateResult[T]: Modified with the new envelope when events were
//     applied, Unmodified when the batch was already reflected by the store.
//   - error: ErrEmptyUpdateBatch or ErrInvalidSequence on caller contract
//     violations, a factory/applier failure, or an *EventSourceError when the
//     backfill read failed.
//
// Behavior Details:
//   - The version the batch expects the store to be at is min(Version)-1.
//   - A stored version of 0 means the model was never persisted; the batch is
//     applied as-is without consulting the event source.
//   - When the expected version matches the stored version the batch is
//     contiguous and applied as-is.
//   - When the store is already past the expected version the batch is a
//     redelivery and the result is Unmodified.
//   - When the store is behind the expected version the batch alone is not
//     enough: the manager loads the full suffix from storedVersion+1 out of
//     the event source and applies that instead of the batch.
//   - The returned envelope's version is the highest sequence number applied,
//     never lower than the version that was handed in.
func (m *ReadStoreManager[T]) Update(
	ctx context.Context,
	rmctx *ReadModelContext,
	events []Envelope,
	envelope ReadModelEnvelope[T],
) (ReadModelUpdateResult[T], error) {
	id := envelope.ReadModelID

	if len(events) == 0 {
		return UnmodifiedResult[T](), fmt.Errorf("update read model %q: %w", id, ErrEmptyUpdateBatch)
	}

	minVersion := events[0].Version
	for _, event := range events {
		if event.Version == 0 {
			return UnmodifiedResult[T](), fmt.Errorf("update read model %q: event %s (%s): %w",
				id, event.EventID, event.Event.EventType(), ErrInvalidSequence)
		}
		if event.Version < minVersion {
			minVersion = event.Version
		}
	}

	expectedVersion := minVersion - 1

	// A model that was never persisted has no version to reconcile against:
	// apply whatever arrived. Same when the batch lines up exactly with the
	// stored version.
	if !envelope.HasVersion() || expectedVersion == envelope.Version {
		return m.apply(ctx, rmctx, events, envelope)
	}

	// Store is already past this batch: redelivery, nothing to do.
	if expectedVersion < envelope.Version {
		return UnmodifiedResult[T](), nil
	}

	// Store is behind the batch: events between the stored version and the
	// batch are missing. The source is authoritative, so reload the full
	// suffix and apply that instead of the batch.
	backfilled, err := m.backfill(ctx, id, envelope.Version+1)
	if err != nil {
		return UnmodifiedResult[T](), &EventSourceError{
			Err: fmt.Errorf("update read model %q: backfill from version %d: %w", id, envelope.Version+1, err),
		}
	}
	if len(backfilled) == 0 {
		// The source lags the delivery channel and has nothing past the
		// stored version yet. Redelivery will close the gap later.
		return UnmodifiedResult[T](), nil
	}
	return m.apply(ctx, rmctx, backfilled, envelope)
}

func (m *ReadStoreManager[T]) backfill(ctx context.Context, id string, fromVersion uint64) ([]Envelope, error) {
	iter, err := m.source.LoadStreamFrom(ctx, id, fromVersion)
	if err != nil {
		return nil, err
	}

	var events []Envelope
	for iter.Next(ctx) {
		events = append(events, *iter.Value())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (m *ReadStoreManager[T]) apply(
	ctx context.Context,
	rmctx *ReadModelContext,
	events []Envelope,
	envelope ReadModelEnvelope[T],
) (ReadModelUpdateResult[T], error) {
	id := envelope.ReadModelID

	model := envelope.ReadModel
	if model == nil {
		created, err := m.factory(ctx, id)
		if err != nil {
			return UnmodifiedResult[T](), fmt.Errorf("update read model %q: factory failed: %w", id, err)
		}
		model = created
	}

	if err := m.applier(ctx, model, events, rmctx); err != nil {
		return UnmodifiedResult[T](), fmt.Errorf("update read model %q: apply failed: %w", id, err)
	}

	version := envelope.Version
	for _, event := range events {
		if event.Version > version {
			version = event.Version
		}
	}

	return ModifiedResult(NewReadModelEnvelope(id, model, version)), nil
}
