package projections

import (
	"context"
)

// ReadModelFactory constructs a new, empty read model for the given id. The
// manager invokes it exactly once per update unit whose envelope holds no
// model yet.
type ReadModelFactory[T any] func(ctx context.Context, id string) (*T, error)

// Applier mutates a read model in place by applying an ordered event slice.
// The manager guarantees the slice is exactly the correct incremental range:
// contiguous, ascending, and starting right after the version the model
// already reflects. Appliers must not assume events may be partially applied
// already.
//
// The ReadModelContext lets an applier request deletion of the read model via
// MarkForDeletion.
type Applier[T any] func(ctx context.Context, model *T, events []Envelope, rmctx *ReadModelContext) error

// ApplyHandler is one typed event application rule used by NewApplier to
// assemble an Applier from per-event functions.
type ApplyHandler[T any] interface {
	// NewEvent returns a zero value of the handled event type, used to derive
	// the routing key. Event payload types are value types.
	NewEvent() Event
	Apply(ctx context.Context, model *T, env *Envelope, rmctx *ReadModelContext) error
}

type typedApplyHandler[T any, E Event] struct {
	applyFunc func(ctx context.Context, model *T, event E) error
}

func (h *typedApplyHandler[T, E]) NewEvent() Event {
	var zero E
	return zero
}

func (h *typedApplyHandler[T, E]) Apply(ctx context.Context, model *T, env *Envelope, rmctx *ReadModelContext) error {
	event, ok := env.Event.(E)
	if !ok {
		return ErrSkippedEvent{Event: env.Event}
	}
	return h.applyFunc(ctx, model, event)
}

// On creates a typed ApplyHandler for a specific event type.
//
// Example Usage:
//
//	applier := NewApplier(
//	    On(func(ctx context.Context, m *OrderSummary, ev OrderCreated) error {
//	        m.CustomerID = ev.CustomerID
//	        return nil
//	    }),
//	    On(func(ctx context.Context, m *OrderSummary, ev ItemAdded) error {
//	        m.ItemCount += ev.Qty
//	        return nil
//	    }),
//	)
func On[T any, E Event](fn func(ctx context.Context, model *T, event E) error) ApplyHandler[T] {
	return &typedApplyHandler[T, E]{applyFunc: fn}
}

// OnDeleted creates an ApplyHandler that marks the read model for deletion
// when the event type occurs. Convenience for terminal events such as
// OrderCancelled or AccountClosed.
func OnDeleted[T any, E Event]() ApplyHandler[T] {
	return &deleteApplyHandler[T, E]{}
}

type deleteApplyHandler[T any, E Event] struct{}

func (h *deleteApplyHandler[T, E]) NewEvent() Event {
	var zero E
	return zero
}

func (h *deleteApplyHandler[T, E]) Apply(ctx context.Context, model *T, env *Envelope, rmctx *ReadModelContext) error {
	rmctx.MarkForDeletion()
	return nil
}

// NewApplier assembles an Applier from typed per-event handlers.
//
// Events without a matching handler are skipped silently: a projection only
// cares about the event types it subscribes to, and streams routinely carry
// more. Handler errors abort the unit and propagate to the processor.
//
// Panics if two handlers claim the same event type.
func NewApplier[T any](handlers ...ApplyHandler[T]) Applier[T] {
	routes := make(map[string]ApplyHandler[T], len(handlers))
	for _, h := range handlers {
		name := h.NewEvent().EventType()
		if _, exists := routes[name]; exists {
			panic("duplicate apply handler for event " + name)
		}
		routes[name] = h
	}

	return func(ctx context.Context, model *T, events []Envelope, rmctx *ReadModelContext) error {
		for i := range events {
			env := &events[i]
			h, ok := routes[env.Event.EventType()]
			if !ok {
				continue
			}
			if err := h.Apply(WithEnvelope(ctx, env), model, env, rmctx); err != nil {
				return err
			}
		}
		return nil
	}
}
