package fixtures

import (
	"context"
	"sync"

	projections "github.com/terraskye/projections"
)

// ReadStoreSpy is a configurable mock ReadModelStore for testing.
// It tracks calls, captures arguments and allows injecting custom behavior
// or failures. The default behavior is a real in-memory store with the full
// optimistic concurrency check, so retry scenarios work out of the box.
type ReadStoreSpy[T any] struct {
	mu sync.Mutex

	// Function overrides for custom behavior
	GetFn     func(ctx context.Context, id string) (projections.ReadModelEnvelope[T], error)
	ReplaceFn func(ctx context.Context, envelope projections.ReadModelEnvelope[T], expectedVersion uint64) error
	DeleteFn  func(ctx context.Context, id string) error

	// Call tracking
	GetCalls     int
	ReplaceCalls int
	DeleteCalls  int

	// Captured arguments from last call
	LastGetID           string
	LastReplaceEnvelope projections.ReadModelEnvelope[T]
	LastReplaceExpected uint64
	LastDeleteID        string

	// Backing data for the default behavior
	docs map[string]storedDoc[T]

	// Error injection
	getErr     error
	replaceErr error
	deleteErr  error
}

type storedDoc[T any] struct {
	model   *T
	version uint64
}

// NewReadStoreSpy creates a new ReadStoreSpy with default in-memory behavior.
func NewReadStoreSpy[T any]() *ReadStoreSpy[T] {
	return &ReadStoreSpy[T]{
		docs: make(map[string]storedDoc[T]),
	}
}

// Seed stores a model at the given version, bypassing the concurrency check.
// Call it before a test, or from a function override to simulate a concurrent
// writer advancing the document mid-cycle.
func (s *ReadStoreSpy[T]) Seed(id string, model *T, version uint64) *ReadStoreSpy[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = storedDoc[T]{model: model, version: version}
	return s
}

// FailOnGet configures the store to return an error on Get.
func (s *ReadStoreSpy[T]) FailOnGet(err error) *ReadStoreSpy[T] {
	s.getErr = err
	return s
}

// FailOnReplace configures the store to return an error on Replace.
func (s *ReadStoreSpy[T]) FailOnReplace(err error) *ReadStoreSpy[T] {
	s.replaceErr = err
	return s
}

// FailOnDelete configures the store to return an error on Delete.
func (s *ReadStoreSpy[T]) FailOnDelete(err error) *ReadStoreSpy[T] {
	s.deleteErr = err
	return s
}

// Get implements ReadModelStore.Get.
func (s *ReadStoreSpy[T]) Get(ctx context.Context, id string) (projections.ReadModelEnvelope[T], error) {
	s.mu.Lock()
	s.GetCalls++
	s.LastGetID = id
	s.mu.Unlock()

	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}

	if s.getErr != nil {
		return projections.EmptyReadModelEnvelope[T](id), s.getErr
	}

	s.mu.Lock()
	doc, ok := s.docs[id]
	s.mu.Unlock()

	if !ok {
		return projections.EmptyReadModelEnvelope[T](id), nil
	}
	return projections.NewReadModelEnvelope(id, doc.model, doc.version), nil
}

// Replace implements ReadModelStore.Replace with the full conditional check.
func (s *ReadStoreSpy[T]) Replace(ctx context.Context, envelope projections.ReadModelEnvelope[T], expectedVersion uint64) error {
	s.mu.Lock()
	s.ReplaceCalls++
	s.LastReplaceEnvelope = envelope
	s.LastReplaceExpected = expectedVersion
	s.mu.Unlock()

	if s.ReplaceFn != nil {
		return s.ReplaceFn(ctx, envelope, expectedVersion)
	}

	if s.replaceErr != nil {
		return s.replaceErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var actual uint64
	if doc, ok := s.docs[envelope.ReadModelID]; ok {
		actual = doc.version
	}
	if actual != expectedVersion {
		return &projections.VersionConflictError{
			ReadModelID:     envelope.ReadModelID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   actual,
		}
	}

	s.docs[envelope.ReadModelID] = storedDoc[T]{model: envelope.ReadModel, version: envelope.Version}
	return nil
}

// Delete implements ReadModelStore.Delete.
func (s *ReadStoreSpy[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.DeleteCalls++
	s.LastDeleteID = id
	s.mu.Unlock()

	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}

	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

// Stored returns the model and version currently stored under id.
func (s *ReadStoreSpy[T]) Stored(id string) (*T, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	return doc.model, doc.version, ok
}

// Reset clears all call counts and stored data.
func (s *ReadStoreSpy[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.GetCalls = 0
	s.ReplaceCalls = 0
	s.DeleteCalls = 0
	s.LastGetID = ""
	s.LastReplaceEnvelope = projections.ReadModelEnvelope[T]{}
	s.LastReplaceExpected = 0
	s.LastDeleteID = ""
	s.docs = make(map[string]storedDoc[T])
	s.getErr = nil
	s.replaceErr = nil
	s.deleteErr = nil
}

// SourceSpy is a configurable mock EventSource for testing.
// It serves pre-configured streams and tracks backfill reads.
type SourceSpy struct {
	mu sync.Mutex

	// Function override for custom behavior
	LoadStreamFromFn func(ctx context.Context, id string, fromVersion uint64) (*projections.Iterator[*projections.Envelope], error)

	// Call tracking
	LoadStreamFromCalls int

	// Captured arguments from last call
	LastLoadStreamID    string
	LastLoadFromVersion uint64

	// Pre-configured data
	streams map[string][]*projections.Envelope // streamID -> envelopes

	// Error injection
	loadErr error
}

// NewSourceSpy creates a new SourceSpy with no streams.
func NewSourceSpy() *SourceSpy {
	return &SourceSpy{
		streams: make(map[string][]*projections.Envelope),
	}
}

// WithStream pre-populates the source with envelopes for a stream.
func (s *SourceSpy) WithStream(streamID string, envelopes ...*projections.Envelope) *SourceSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[streamID] = envelopes
	return s
}

// WithStreamEvents pre-populates a stream from events, versioned 1..n.
func (s *SourceSpy) WithStreamEvents(streamID string, events ...projections.Event) *SourceSpy {
	return s.WithStream(streamID, EnvelopesFromEvents(events...)...)
}

// FailOnLoad configures the source to return an error on LoadStreamFrom.
func (s *SourceSpy) FailOnLoad(err error) *SourceSpy {
	s.loadErr = err
	return s
}

// LoadStreamFrom implements EventSource.LoadStreamFrom. The default behavior
// serves every configured envelope with Version >= fromVersion, in order.
func (s *SourceSpy) LoadStreamFrom(ctx context.Context, id string, fromVersion uint64) (*projections.Iterator[*projections.Envelope], error) {
	s.mu.Lock()
	s.LoadStreamFromCalls++
	s.LastLoadStreamID = id
	s.LastLoadFromVersion = fromVersion
	s.mu.Unlock()

	if s.LoadStreamFromFn != nil {
		return s.LoadStreamFromFn(ctx, id, fromVersion)
	}

	if s.loadErr != nil {
		return nil, s.loadErr
	}

	s.mu.Lock()
	envelopes := s.streams[id]
	s.mu.Unlock()

	var filtered []*projections.Envelope
	for _, e := range envelopes {
		if e.Version >= fromVersion {
			filtered = append(filtered, e)
		}
	}

	return SliceIterator(filtered), nil
}

// Reset clears all call counts and configured streams.
func (s *SourceSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LoadStreamFromCalls = 0
	s.LastLoadStreamID = ""
	s.LastLoadFromVersion = 0
	s.streams = make(map[string][]*projections.Envelope)
	s.loadErr = nil
}

// Pre-built source scenarios.

// EmptySource returns a SourceSpy with no streams.
func EmptySource() *SourceSpy {
	return NewSourceSpy()
}

// SourceWithEvents returns a SourceSpy serving n test events on one stream.
func SourceWithEvents(streamID string, n int) *SourceSpy {
	events := NewTestEvent().WithID(streamID).BuildN(n)
	return NewSourceSpy().WithStreamEvents(streamID, events...)
}

// FailingSource returns a SourceSpy that fails every load.
func FailingSource(err error) *SourceSpy {
	return NewSourceSpy().FailOnLoad(err)
}
