package fixtures

import (
	"context"
	"sync"

	projections "github.com/terraskye/projections"
)

// EventLog is a read model that records exactly what was applied to it. Tests
// use it to assert application order, counts and versions without caring
// about domain semantics.
type EventLog struct {
	ID       string
	Applied  []string
	Versions []uint64
}

// NewEventLogFactory returns a factory producing empty EventLog models.
func NewEventLogFactory() projections.ReadModelFactory[EventLog] {
	return func(ctx context.Context, id string) (*EventLog, error) {
		return &EventLog{ID: id}, nil
	}
}

// NewEventLogApplier returns an applier that appends every event's type and
// version to the log, regardless of event type.
func NewEventLogApplier() projections.Applier[EventLog] {
	return func(ctx context.Context, model *EventLog, events []projections.Envelope, rmctx *projections.ReadModelContext) error {
		for _, env := range events {
			model.Applied = append(model.Applied, env.Event.EventType())
			model.Versions = append(model.Versions, env.Version)
		}
		return nil
	}
}

// OrderSummary is a small but realistic read model used by the typed applier
// fixtures.
type OrderSummary struct {
	OrderID   string
	Customer  string
	ItemCount int
	Total     int
}

// NewOrderSummaryFactory returns a factory producing empty OrderSummary models.
func NewOrderSummaryFactory() projections.ReadModelFactory[OrderSummary] {
	return func(ctx context.Context, id string) (*OrderSummary, error) {
		return &OrderSummary{OrderID: id}, nil
	}
}

// NewOrderSummaryApplier returns a typed applier folding the order events into
// an OrderSummary. OrderCancelled marks the model for deletion.
func NewOrderSummaryApplier() projections.Applier[OrderSummary] {
	return projections.NewApplier(
		projections.On(func(ctx context.Context, m *OrderSummary, ev OrderCreated) error {
			m.Customer = ev.Customer
			m.Total = ev.Total
			return nil
		}),
		projections.On(func(ctx context.Context, m *OrderSummary, ev OrderItemAdded) error {
			m.ItemCount += ev.Quantity
			m.Total += ev.Quantity * ev.Price
			return nil
		}),
		projections.OnDeleted[OrderSummary, OrderCancelled](),
	)
}

// FactorySpy wraps a ReadModelFactory and counts invocations.
type FactorySpy[T any] struct {
	mu    sync.Mutex
	inner projections.ReadModelFactory[T]

	// Call tracking
	Calls   int
	LastID  string
	callErr error
}

// NewFactorySpy creates a FactorySpy delegating to inner.
func NewFactorySpy[T any](inner projections.ReadModelFactory[T]) *FactorySpy[T] {
	return &FactorySpy[T]{inner: inner}
}

// FailWith configures the factory to return an error.
func (f *FactorySpy[T]) FailWith(err error) *FactorySpy[T] {
	f.callErr = err
	return f
}

// Factory returns the counting ReadModelFactory.
func (f *FactorySpy[T]) Factory() projections.ReadModelFactory[T] {
	return func(ctx context.Context, id string) (*T, error) {
		f.mu.Lock()
		f.Calls++
		f.LastID = id
		err := f.callErr
		f.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return f.inner(ctx, id)
	}
}

// ApplierSpy wraps an Applier and records every invocation.
type ApplierSpy[T any] struct {
	mu    sync.Mutex
	inner projections.Applier[T]

	// Call tracking
	Calls int

	// Captured arguments, one entry per call
	AppliedBatches [][]projections.Envelope

	callErr error
}

// NewApplierSpy creates an ApplierSpy delegating to inner. A nil inner applier
// records calls and does nothing else.
func NewApplierSpy[T any](inner projections.Applier[T]) *ApplierSpy[T] {
	return &ApplierSpy[T]{inner: inner}
}

// FailWith configures the applier to return an error.
func (a *ApplierSpy[T]) FailWith(err error) *ApplierSpy[T] {
	a.callErr = err
	return a
}

// Applier returns the recording Applier.
func (a *ApplierSpy[T]) Applier() projections.Applier[T] {
	return func(ctx context.Context, model *T, events []projections.Envelope, rmctx *projections.ReadModelContext) error {
		a.mu.Lock()
		a.Calls++
		a.AppliedBatches = append(a.AppliedBatches, events)
		err := a.callErr
		a.mu.Unlock()

		if err != nil {
			return err
		}
		if a.inner == nil {
			return nil
		}
		return a.inner(ctx, model, events, rmctx)
	}
}

// AppliedVersions flattens the captured batches into the sequence of stream
// versions that were applied, in order.
func (a *ApplierSpy[T]) AppliedVersions() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var versions []uint64
	for _, batch := range a.AppliedBatches {
		for _, env := range batch {
			versions = append(versions, env.Version)
		}
	}
	return versions
}

// UpdateForEvents builds a single update unit from events, versioned 1..n.
func UpdateForEvents(readModelID string, events ...projections.Event) projections.ReadModelUpdate {
	return projections.ReadModelUpdate{
		ReadModelID: readModelID,
		Envelopes:   EnvelopeValuesFromEvents(events...),
	}
}

// UpdateForEnvelopes builds a single update unit from envelope values.
func UpdateForEnvelopes(readModelID string, envelopes ...projections.Envelope) projections.ReadModelUpdate {
	return projections.ReadModelUpdate{
		ReadModelID: readModelID,
		Envelopes:   envelopes,
	}
}
