package projections

import (
	"context"
)

// EventSource is the read-only view of an event store that the reconciliation
// manager uses to backfill missing events. Any append-capable event store
// satisfies it; the projection side never writes to the stream.
//
// Implementations must guarantee:
//   - Events for a given aggregate are yielded in ascending version order.
//   - The yielded range is contiguous starting at fromVersion (no gaps): the
//     authoritative log assigns sequence numbers without holes, and the source
//     exposes them as stored.
//   - Iteration stops when the context is canceled.
type EventSource interface {
	// LoadStreamFrom loads the events for the given aggregate ID starting at
	// the specified version, inclusive.
	//
	// Parameters:
	//   - ctx: Request-scoped context for cancellation and tracing.
	//   - id: Aggregate identifier (equal to the read model ID it projects to).
	//   - fromVersion: First sequence number to yield. Sequence numbers start
	//     at 1, so callers resuming after a persisted read model pass
	//     storedVersion+1.
	//
	// Returns:
	//   - *Iterator[*Envelope]: Lazy iterator over events from fromVersion to
	//     the current head of the stream.
	//   - error: Non-nil if the source could not start reading. Mid-iteration
	//     failures surface through the iterator's Err method.
	LoadStreamFrom(ctx context.Context, id string, fromVersion uint64) (*Iterator[*Envelope], error)
}
