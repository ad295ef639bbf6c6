package projections

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// ---------------------- Test helpers / stubs ----------------------

type counterCreated struct {
	ID    string
	Start int
}

func (e counterCreated) AggregateID() string { return e.ID }
func (e counterCreated) EventType() string   { return "counterCreated" }

type counterIncremented struct {
	ID string
	By int
}

func (e counterIncremented) AggregateID() string { return e.ID }
func (e counterIncremented) EventType() string   { return "counterIncremented" }

type counterClosed struct {
	ID string
}

func (e counterClosed) AggregateID() string { return e.ID }
func (e counterClosed) EventType() string   { return "counterClosed" }

type counterModel struct {
	Value int
}

// ---------------------- Tests ----------------------

func TestNewApplier_RoutesByEventType(t *testing.T) {
	applier := NewApplier(
		On(func(ctx context.Context, m *counterModel, ev counterCreated) error {
			m.Value = ev.Start
			return nil
		}),
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error {
			m.Value += ev.By
			return nil
		}),
	)

	model := &counterModel{}
	events := []Envelope{
		{EventID: uuid.New(), StreamID: "c-1", Event: counterCreated{ID: "c-1", Start: 10}, Version: 1},
		{EventID: uuid.New(), StreamID: "c-1", Event: counterIncremented{ID: "c-1", By: 5}, Version: 2},
		{EventID: uuid.New(), StreamID: "c-1", Event: counterIncremented{ID: "c-1", By: 3}, Version: 3},
	}

	err := applier(context.Background(), model, events, NewReadModelContext("c-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Value != 18 {
		t.Fatalf("expected value 18, got %d", model.Value)
	}
}

func TestNewApplier_SkipsUnroutedEvents(t *testing.T) {
	applier := NewApplier(
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error {
			m.Value += ev.By
			return nil
		}),
	)

	model := &counterModel{}
	events := []Envelope{
		{EventID: uuid.New(), StreamID: "c-1", Event: counterCreated{ID: "c-1", Start: 10}, Version: 1},
		{EventID: uuid.New(), StreamID: "c-1", Event: counterIncremented{ID: "c-1", By: 5}, Version: 2},
	}

	err := applier(context.Background(), model, events, NewReadModelContext("c-1"))
	if err != nil {
		t.Fatalf("unrouted events must be skipped silently, got %v", err)
	}
	if model.Value != 5 {
		t.Fatalf("expected only the routed event applied, got %d", model.Value)
	}
}

func TestNewApplier_DuplicateHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for duplicate handlers")
		}
	}()

	NewApplier(
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error { return nil }),
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error { return nil }),
	)
}

func TestNewApplier_HandlerErrorAborts(t *testing.T) {
	handlerErr := errors.New("bad payload")
	applied := 0
	applier := NewApplier(
		On(func(ctx context.Context, m *counterModel, ev counterCreated) error {
			return handlerErr
		}),
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error {
			applied++
			return nil
		}),
	)

	events := []Envelope{
		{EventID: uuid.New(), StreamID: "c-1", Event: counterCreated{ID: "c-1"}, Version: 1},
		{EventID: uuid.New(), StreamID: "c-1", Event: counterIncremented{ID: "c-1", By: 1}, Version: 2},
	}

	err := applier(context.Background(), &counterModel{}, events, NewReadModelContext("c-1"))
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected the handler error, got %v", err)
	}
	if applied != 0 {
		t.Fatalf("later events must not be applied after a failure, applied %d", applied)
	}
}

func TestOnDeleted_MarksContext(t *testing.T) {
	applier := NewApplier(
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error {
			m.Value += ev.By
			return nil
		}),
		OnDeleted[counterModel, counterClosed](),
	)

	rmctx := NewReadModelContext("c-1")
	events := []Envelope{
		{EventID: uuid.New(), StreamID: "c-1", Event: counterIncremented{ID: "c-1", By: 2}, Version: 1},
		{EventID: uuid.New(), StreamID: "c-1", Event: counterClosed{ID: "c-1"}, Version: 2},
	}

	err := applier(context.Background(), &counterModel{}, events, rmctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rmctx.MarkedForDeletion() {
		t.Fatalf("expected the context to be marked for deletion")
	}
}

func TestNewApplier_StampsEnvelopeOnContext(t *testing.T) {
	var seenVersion uint64
	var seenEventID uuid.UUID
	var seenStreamID string

	applier := NewApplier(
		On(func(ctx context.Context, m *counterModel, ev counterIncremented) error {
			seenVersion = VersionFromContext(ctx)
			seenEventID = EventIDFromContext(ctx)
			seenStreamID = StreamIDFromContext(ctx)
			return nil
		}),
	)

	eventID := uuid.New()
	events := []Envelope{
		{EventID: eventID, StreamID: "c-1", Event: counterIncremented{ID: "c-1", By: 1}, Version: 9},
	}

	err := applier(context.Background(), &counterModel{}, events, NewReadModelContext("c-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenVersion != 9 {
		t.Errorf("expected version 9 on the context, got %d", seenVersion)
	}
	if seenEventID != eventID {
		t.Errorf("expected event id %s on the context, got %s", eventID, seenEventID)
	}
	if seenStreamID != "c-1" {
		t.Errorf("expected stream id c-1 on the context, got %s", seenStreamID)
	}
}

func TestTypedApplyHandler_WrongPayloadType(t *testing.T) {
	// Two event types sharing one EventType string route to the same handler;
	// the stricter payload assertion catches the mismatch.
	h := On(func(ctx context.Context, m *counterModel, ev counterIncremented) error { return nil })

	env := &Envelope{Event: testEvent{agg: "c-1", typ: "counterIncremented"}, Version: 1}
	err := h.Apply(context.Background(), &counterModel{}, env, NewReadModelContext("c-1"))

	var skipped ErrSkippedEvent
	if !errors.As(err, &skipped) {
		t.Fatalf("expected ErrSkippedEvent, got %T: %v", err, err)
	}
}
