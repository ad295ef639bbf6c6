package projections

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event describing a change that has happened to an aggregate.
type Event interface {
	AggregateID() string
	EventType() string
}

// Envelope carries a single domain event together with its position in the
// aggregate's stream. Version is the aggregate sequence number: it starts at 1
// and increases by exactly one per event in the authoritative log. Envelopes
// are produced by the event store (or a bus feeding from it) and are never
// mutated by this package.
type Envelope struct {
	EventID       uuid.UUID
	StreamID      string
	Metadata      map[string]any
	Event         Event
	Version       uint64
	GlobalVersion uint64
	OccurredAt    time.Time
}
