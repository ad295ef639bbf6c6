package projections

import (
	"context"
	"errors"
	"io"
)

// Iterator is a lazy pull iterator over items produced by a backing source,
// typically envelopes streamed from an event store.
//
// The zero value is not usable; construct one with NewIteratorFunc or
// NewSliceIterator. Iterators are single-use and not safe for concurrent
// consumption.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (T, error)
	current  T
	err      error
}

// NewIteratorFunc creates an Iterator from a function producing the next item.
// The function should return (zero, io.EOF) when the iterator is exhausted, or
// (zero, err) on failure. Context cancellation should be honoured by returning
// ctx.Err().
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{
		nextFunc: nextFunc,
	}
}

// NewSliceIterator creates an Iterator yielding the given items in order.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	index := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if index >= len(items) {
			return zero, io.EOF
		}
		item := items[index]
		index++
		return item, nil
	})
}

// Next advances the iterator. Returns false once the iterator is exhausted or
// an error occurred.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	it.current, it.err = it.nextFunc(ctx)
	return it.err == nil
}

// Value returns the item produced by the last successful Next.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the error that terminated iteration, or nil if the iterator
// ended cleanly. io.EOF is treated as clean termination.
func (it *Iterator[T]) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

// All consumes the iterator and returns the remaining items.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	var results []T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
