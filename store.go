package projections

import (
	"context"
)

// ReadModelStore defines the contract for a versioned read model document
// store. A store holds at most one document per read model ID together with
// the aggregate sequence number the document reflects, and replaces documents
// only under an optimistic concurrency check.
//
// Implementations must guarantee:
//   - Get on an unknown ID is not an error: it returns the empty envelope
//     (no model, version 0) so callers can distinguish "never projected"
//     from infrastructure failure.
//   - Replace is atomic with respect to the version check. Two concurrent
//     writers loading the same version must not both succeed.
//   - Errors the backend considers recoverable (timeouts, lost connections)
//     are wrapped with Transient so the processor retries the cycle.
type ReadModelStore[T any] interface {
	// Get loads the envelope stored under id.
	//
	// Returns:
	//   - ReadModelEnvelope[T]: The stored model and version, or
	//     EmptyReadModelEnvelope(id) when nothing is stored.
	//   - error: Non-nil only on infrastructure failure.
	Get(ctx context.Context, id string) (ReadModelEnvelope[T], error)

	// Replace writes envelope if and only if the currently stored version
	// equals expectedVersion. expectedVersion 0 means the document must not
	// exist yet (sequence numbers start at 1, so 0 never names a stored
	// version).
	//
	// Errors:
	//   - *VersionConflictError if the stored version does not match.
	//   - Any store-specific persistence error, wrapped Transient when
	//     retryable.
	Replace(ctx context.Context, envelope ReadModelEnvelope[T], expectedVersion uint64) error

	// Delete removes the document stored under id. Deleting an absent ID is
	// not an error; deletion is idempotent.
	Delete(ctx context.Context, id string) error
}
