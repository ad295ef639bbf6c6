package fixtures

import (
	"context"
	"io"

	projections "github.com/terraskye/projections"
)

// EmptyIterator returns an iterator that yields no items.
func EmptyIterator() *projections.Iterator[*projections.Envelope] {
	return projections.NewIteratorFunc(func(ctx context.Context) (*projections.Envelope, error) {
		return nil, io.EOF
	})
}

// FailingIterator returns an iterator that fails with the given error.
func FailingIterator(err error) *projections.Iterator[*projections.Envelope] {
	return projections.NewIteratorFunc(func(ctx context.Context) (*projections.Envelope, error) {
		return nil, err
	})
}

// SingleEnvelopeIterator returns an iterator that yields a single envelope.
func SingleEnvelopeIterator(env *projections.Envelope) *projections.Iterator[*projections.Envelope] {
	returned := false
	return projections.NewIteratorFunc(func(ctx context.Context) (*projections.Envelope, error) {
		if returned {
			return nil, io.EOF
		}
		returned = true
		return env, nil
	})
}

// EnvelopeIteratorFromEvents creates an iterator from events.
func EnvelopeIteratorFromEvents(events ...projections.Event) *projections.Iterator[*projections.Envelope] {
	envelopes := EnvelopesFromEvents(events...)
	return SliceIterator(envelopes)
}

// SliceIterator creates an iterator from a slice of envelope pointers.
func SliceIterator(envelopes []*projections.Envelope) *projections.Iterator[*projections.Envelope] {
	idx := 0
	return projections.NewIteratorFunc(func(ctx context.Context) (*projections.Envelope, error) {
		if idx >= len(envelopes) {
			return nil, io.EOF
		}
		env := envelopes[idx]
		idx++
		return env, nil
	})
}

// FailAfterNIterator returns an iterator that yields n items, then fails.
func FailAfterNIterator(envelopes []*projections.Envelope, n int, err error) *projections.Iterator[*projections.Envelope] {
	idx := 0
	return projections.NewIteratorFunc(func(ctx context.Context) (*projections.Envelope, error) {
		if idx >= n {
			return nil, err
		}
		if idx >= len(envelopes) {
			return nil, io.EOF
		}
		env := envelopes[idx]
		idx++
		return env, nil
	})
}

// ContextAwareIterator returns an iterator that respects context cancellation.
func ContextAwareIterator(envelopes []*projections.Envelope) *projections.Iterator[*projections.Envelope] {
	idx := 0
	return projections.NewIteratorFunc(func(ctx context.Context) (*projections.Envelope, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if idx >= len(envelopes) {
			return nil, io.EOF
		}
		env := envelopes[idx]
		idx++
		return env, nil
	})
}
