package projections

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyUpdateBatch is returned when an empty event batch is handed to
	// BuildReadModelUpdates or to the manager. Empty batches are a caller
	// contract violation and are never retried.
	ErrEmptyUpdateBatch = errors.New("empty event batch")

	// ErrInvalidSequence is returned when an envelope carries sequence number 0.
	// Aggregate sequence numbers start at 1.
	ErrInvalidSequence = errors.New("invalid aggregate sequence number")
)

// VersionConflictError is returned by a ReadModelStore when a conditional
// replace loses the optimistic concurrency race: another writer advanced the
// read model past the version observed at load time. The processor treats it
// as retryable and re-runs the full load/reconcile/write cycle.
type VersionConflictError struct {
	ReadModelID     string
	ExpectedVersion uint64
	ActualVersion   uint64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("read model %q: version conflict: expected %d, got %d",
		e.ReadModelID, e.ExpectedVersion, e.ActualVersion)
}

// TransientError marks an infrastructure failure (network partition, store
// unavailability) as safe to retry. Store implementations wrap errors they
// classify as transient; everything else is treated as permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so the retry layer will re-attempt the cycle.
// Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsRetryable reports whether err should trigger a fresh load/reconcile/write
// attempt: version conflicts and transient infrastructure failures qualify.
func IsRetryable(err error) bool {
	var conflict *VersionConflictError
	if errors.As(err, &conflict) {
		return true
	}
	var transient *TransientError
	return errors.As(err, &transient)
}

// ErrSkippedEvent is returned when a handler cannot handle the event type.
type ErrSkippedEvent struct {
	Event Event
}

func (e ErrSkippedEvent) Error() string {
	return fmt.Sprintf("skipped event of type %T", e.Event)
}

// EventSourceError wraps a failure to fetch missing events during backfill.
// It is propagated unmodified and not retried locally: a retried cycle would
// re-derive the same gap.
type EventSourceError struct {
	Err error
}

func (e *EventSourceError) Error() string {
	return fmt.Sprintf("event source error: %v", e.Err)
}

func (e *EventSourceError) Unwrap() error {
	return e.Err
}
