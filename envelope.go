package projections

// ReadModelEnvelope wraps a read model together with the stream version it
// reflects. Version is the highest aggregate sequence number applied to the
// model; 0 means the model has never been persisted. A nil ReadModel means the
// store holds nothing under this id, in which case Version is always 0.
//
// Envelopes are constructed fresh on every load; reconciliation never mutates
// one in place but produces a new envelope for the updated state.
type ReadModelEnvelope[T any] struct {
	ReadModelID string
	ReadModel   *T
	Version     uint64
}

// EmptyReadModelEnvelope creates the envelope for an id with no stored read
// model. Loading an unknown id yields this.
func EmptyReadModelEnvelope[T any](id string) ReadModelEnvelope[T] {
	return ReadModelEnvelope[T]{ReadModelID: id}
}

// NewReadModelEnvelope creates an envelope holding model at the given version.
func NewReadModelEnvelope[T any](id string, model *T, version uint64) ReadModelEnvelope[T] {
	return ReadModelEnvelope[T]{
		ReadModelID: id,
		ReadModel:   model,
		Version:     version,
	}
}

// Exists reports whether the envelope holds a read model.
func (e ReadModelEnvelope[T]) Exists() bool {
	return e.ReadModel != nil
}

// HasVersion reports whether the envelope reflects persisted state. It is
// false exactly when the read model has never been written.
func (e ReadModelEnvelope[T]) HasVersion() bool {
	return e.Version > 0
}
