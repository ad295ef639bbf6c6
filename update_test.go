package projections

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func makeEnvelope(streamID string, version uint64) Envelope {
	return Envelope{
		EventID:  uuid.New(),
		StreamID: streamID,
		Event:    testEvent{agg: streamID, typ: "TestEvent"},
		Version:  version,
	}
}

func TestBuildReadModelUpdates_EmptyBatch(t *testing.T) {
	_, err := BuildReadModelUpdates(nil)
	if !errors.Is(err, ErrEmptyUpdateBatch) {
		t.Fatalf("expected ErrEmptyUpdateBatch, got %v", err)
	}

	_, err = BuildReadModelUpdates([]Envelope{})
	if !errors.Is(err, ErrEmptyUpdateBatch) {
		t.Fatalf("expected ErrEmptyUpdateBatch for empty slice, got %v", err)
	}
}

func TestBuildReadModelUpdates_ZeroVersion(t *testing.T) {
	events := []Envelope{
		makeEnvelope("agg-1", 1),
		makeEnvelope("agg-1", 0),
	}

	_, err := BuildReadModelUpdates(events)
	if !errors.Is(err, ErrInvalidSequence) {
		t.Fatalf("expected ErrInvalidSequence, got %v", err)
	}
}

func TestBuildReadModelUpdates_SingleAggregate(t *testing.T) {
	events := []Envelope{
		makeEnvelope("agg-1", 1),
		makeEnvelope("agg-1", 2),
		makeEnvelope("agg-1", 3),
	}

	updates, err := BuildReadModelUpdates(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].ReadModelID != "agg-1" {
		t.Fatalf("expected read model id agg-1, got %s", updates[0].ReadModelID)
	}
	if len(updates[0].Envelopes) != 3 {
		t.Fatalf("expected 3 envelopes, got %d", len(updates[0].Envelopes))
	}
}

func TestBuildReadModelUpdates_SortsWithinGroup(t *testing.T) {
	events := []Envelope{
		makeEnvelope("agg-1", 3),
		makeEnvelope("agg-1", 1),
		makeEnvelope("agg-1", 2),
	}

	updates, err := BuildReadModelUpdates(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := versionsOf(updates[0].Envelopes)
	want := []uint64{1, 2, 3}
	if !equalVersions(got, want) {
		t.Fatalf("expected versions %v, got %v", want, got)
	}
}

func TestBuildReadModelUpdates_GroupsInterleavedAggregates(t *testing.T) {
	events := []Envelope{
		makeEnvelope("agg-a", 2),
		makeEnvelope("agg-b", 1),
		makeEnvelope("agg-a", 1),
		makeEnvelope("agg-b", 2),
		makeEnvelope("agg-a", 3),
	}

	updates, err := BuildReadModelUpdates(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}

	byID := make(map[string]ReadModelUpdate, len(updates))
	for _, u := range updates {
		byID[u.ReadModelID] = u
	}

	a, ok := byID["agg-a"]
	if !ok {
		t.Fatalf("expected an update for agg-a")
	}
	if !equalVersions(versionsOf(a.Envelopes), []uint64{1, 2, 3}) {
		t.Fatalf("expected agg-a versions [1 2 3], got %v", versionsOf(a.Envelopes))
	}

	b, ok := byID["agg-b"]
	if !ok {
		t.Fatalf("expected an update for agg-b")
	}
	if !equalVersions(versionsOf(b.Envelopes), []uint64{1, 2}) {
		t.Fatalf("expected agg-b versions [1 2], got %v", versionsOf(b.Envelopes))
	}
}

func TestBuildReadModelUpdates_PreservesEnvelopeContents(t *testing.T) {
	env := makeEnvelope("agg-1", 4)
	env.Metadata = map[string]any{"trace": "abc"}

	updates, err := BuildReadModelUpdates([]Envelope{env})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := updates[0].Envelopes[0]
	if got.EventID != env.EventID {
		t.Errorf("expected event id %s, got %s", env.EventID, got.EventID)
	}
	if got.Metadata["trace"] != "abc" {
		t.Errorf("expected metadata to survive grouping, got %v", got.Metadata)
	}
}

func versionsOf(envs []Envelope) []uint64 {
	versions := make([]uint64, len(envs))
	for i, e := range envs {
		versions[i] = e.Version
	}
	return versions
}

func equalVersions(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
