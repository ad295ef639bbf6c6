package kafka

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/terraskye/projections"
)

// wireEnvelope is the JSON shape events travel in on the topic. The payload
// stays raw until the registry tells us its concrete type.
type wireEnvelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	StreamID      string          `json:"stream_id"`
	EventType     string          `json:"event_type"`
	Event         json.RawMessage `json:"event"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	Version       uint64          `json:"version"`
	GlobalVersion uint64          `json:"global_version,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// DecodeEnvelope decodes one wire message into an Envelope, resolving the
// payload type through the event registry. Factories return pointer events so
// the payload can unmarshal into them; the envelope carries the value.
func DecodeEnvelope(data []byte) (projections.Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return projections.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	event, err := projections.NewEventByName(wire.EventType)
	if err != nil {
		return projections.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(wire.Event) > 0 {
		if err := json.Unmarshal(wire.Event, event); err != nil {
			return projections.Envelope{}, fmt.Errorf("decode envelope: payload of %s: %w", wire.EventType, err)
		}
	}

	return projections.Envelope{
		EventID:       wire.EventID,
		StreamID:      wire.StreamID,
		Event:         deref(event),
		Metadata:      wire.Metadata,
		Version:       wire.Version,
		GlobalVersion: wire.GlobalVersion,
		OccurredAt:    wire.OccurredAt,
	}, nil
}

// EncodeEnvelope is the inverse of DecodeEnvelope, for producers and tests.
func EncodeEnvelope(env projections.Envelope) ([]byte, error) {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: payload of %s: %w", env.Event.EventType(), err)
	}
	return json.Marshal(wireEnvelope{
		EventID:       env.EventID,
		StreamID:      env.StreamID,
		EventType:     env.Event.EventType(),
		Event:         payload,
		Metadata:      env.Metadata,
		Version:       env.Version,
		GlobalVersion: env.GlobalVersion,
		OccurredAt:    env.OccurredAt,
	})
}

// deref unwraps the pointer a registry factory hands out. Event payload types
// implement Event on value receivers, so both forms satisfy the interface and
// appliers route on the value form.
func deref(event projections.Event) projections.Event {
	v := reflect.ValueOf(event)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		if inner, ok := v.Elem().Interface().(projections.Event); ok {
			return inner
		}
	}
	return event
}
