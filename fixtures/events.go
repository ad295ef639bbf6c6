package fixtures

import (
	"fmt"

	projections "github.com/terraskye/projections"
)

// TestEvent is a configurable test event implementing the Event interface.
type TestEvent struct {
	ID   string
	Type string
	Data string
}

func (e TestEvent) AggregateID() string { return e.ID }
func (e TestEvent) EventType() string   { return e.Type }

// TestEventBuilder provides a fluent API for constructing test events.
type TestEventBuilder struct {
	id   string
	typ  string
	data string
}

// NewTestEvent creates a new TestEventBuilder with sensible defaults.
func NewTestEvent() *TestEventBuilder {
	return &TestEventBuilder{
		id:   "aggregate-1",
		typ:  "TestEvent",
		data: "",
	}
}

// WithID sets the aggregate ID.
func (b *TestEventBuilder) WithID(id string) *TestEventBuilder {
	b.id = id
	return b
}

// WithType sets the event type.
func (b *TestEventBuilder) WithType(typ string) *TestEventBuilder {
	b.typ = typ
	return b
}

// WithData sets custom data on the event.
func (b *TestEventBuilder) WithData(data string) *TestEventBuilder {
	b.data = data
	return b
}

// Build constructs the TestEvent.
func (b *TestEventBuilder) Build() TestEvent {
	return TestEvent{
		ID:   b.id,
		Type: b.typ,
		Data: b.data,
	}
}

// BuildN creates n events with sequential data.
func (b *TestEventBuilder) BuildN(n int) []projections.Event {
	events := make([]projections.Event, n)
	for i := 0; i < n; i++ {
		events[i] = TestEvent{
			ID:   b.id,
			Type: b.typ,
			Data: fmt.Sprintf("%s-%d", b.data, i+1),
		}
	}
	return events
}

// Common pre-built events for quick testing.
var (
	OrderCreatedEvent = TestEvent{ID: "order-1", Type: "OrderCreated", Data: ""}
	OrderUpdatedEvent = TestEvent{ID: "order-1", Type: "OrderUpdated", Data: ""}
	OrderDeletedEvent = TestEvent{ID: "order-1", Type: "OrderDeleted", Data: ""}

	UserCreatedEvent = TestEvent{ID: "user-1", Type: "UserCreated", Data: ""}
	UserUpdatedEvent = TestEvent{ID: "user-1", Type: "UserUpdated", Data: ""}
)

// Typed order events used with the typed applier helpers. They carry the
// concrete value through the routing layer so appliers can read fields
// without casting from a generic payload.

// OrderCreated signals a new order stream.
type OrderCreated struct {
	OrderID  string
	Customer string
	Total    int
}

func (e OrderCreated) AggregateID() string { return e.OrderID }
func (e OrderCreated) EventType() string   { return "OrderCreated" }

// OrderItemAdded adds a line item to an existing order.
type OrderItemAdded struct {
	OrderID  string
	SKU      string
	Quantity int
	Price    int
}

func (e OrderItemAdded) AggregateID() string { return e.OrderID }
func (e OrderItemAdded) EventType() string   { return "OrderItemAdded" }

// OrderCancelled removes the order from the read side.
type OrderCancelled struct {
	OrderID string
	Reason  string
}

func (e OrderCancelled) AggregateID() string { return e.OrderID }
func (e OrderCancelled) EventType() string   { return "OrderCancelled" }
