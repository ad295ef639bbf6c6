package projections

// ReadModelUpdateResult is the outcome of reconciling one update unit against
// the stored envelope. IsModified signals whether a store write is needed; an
// unmodified result means the incoming batch was stale or already reflected
// and the stored read model must be left untouched.
type ReadModelUpdateResult[T any] struct {
	Envelope   ReadModelEnvelope[T]
	IsModified bool
}

// ModifiedResult marks the envelope as carrying new state to persist.
func ModifiedResult[T any](envelope ReadModelEnvelope[T]) ReadModelUpdateResult[T] {
	return ReadModelUpdateResult[T]{Envelope: envelope, IsModified: true}
}

// UnmodifiedResult signals that no store write is needed.
func UnmodifiedResult[T any]() ReadModelUpdateResult[T] {
	return ReadModelUpdateResult[T]{}
}
