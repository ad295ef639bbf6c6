package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/terraskye/projections"
)

// Store keeps read model documents in memory as JSON blobs. Round-tripping
// through JSON hands out isolated copies and keeps behavior aligned with the
// durable backends: a model only survives what serialization preserves.
//
// It is the reference implementation of the conditional replace semantics and
// the store most tests run against.
type Store[T any] struct {
	mu   sync.RWMutex
	docs map[string]document
}

type document struct {
	data    []byte
	version uint64
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{docs: make(map[string]document)}
}

func (s *Store[T]) Get(ctx context.Context, id string) (projections.ReadModelEnvelope[T], error) {
	s.mu.RLock()
	doc, exists := s.docs[id]
	s.mu.RUnlock()

	if !exists {
		return projections.EmptyReadModelEnvelope[T](id), nil
	}

	var model T
	if err := json.Unmarshal(doc.data, &model); err != nil {
		return projections.EmptyReadModelEnvelope[T](id), fmt.Errorf("get read model %q: decode: %w", id, err)
	}
	return projections.NewReadModelEnvelope(id, &model, doc.version), nil
}

func (s *Store[T]) Replace(ctx context.Context, envelope projections.ReadModelEnvelope[T], expectedVersion uint64) error {
	data, err := json.Marshal(envelope.ReadModel)
	if err != nil {
		return fmt.Errorf("replace read model %q: encode: %w", envelope.ReadModelID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.docs[envelope.ReadModelID]

	var actual uint64
	if exists {
		actual = current.version
	}
	if actual != expectedVersion {
		return &projections.VersionConflictError{
			ReadModelID:     envelope.ReadModelID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   actual,
		}
	}

	s.docs[envelope.ReadModelID] = document{data: data, version: envelope.Version}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}
