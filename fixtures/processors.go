package fixtures

import (
	"context"
	"sync"

	projections "github.com/terraskye/projections"
)

// ProcessorSpy is a configurable mock UpdateProcessor for testing.
// It tracks calls and captures the update batches it receives, so ingestion
// and middleware tests can assert what reached the processing stage.
type ProcessorSpy struct {
	mu sync.Mutex

	// Function override
	ProcessUpdatesFn func(ctx context.Context, updates []projections.ReadModelUpdate) error

	// Call tracking
	ProcessUpdatesCalls int

	// Captured batches, one entry per call
	ReceivedBatches [][]projections.ReadModelUpdate

	// Error injection
	processErr error
}

// NewProcessorSpy creates a new ProcessorSpy.
func NewProcessorSpy() *ProcessorSpy {
	return &ProcessorSpy{}
}

// FailOnProcess configures the processor to return an error.
func (p *ProcessorSpy) FailOnProcess(err error) *ProcessorSpy {
	p.processErr = err
	return p
}

// ProcessUpdates implements UpdateProcessor.ProcessUpdates.
func (p *ProcessorSpy) ProcessUpdates(ctx context.Context, updates []projections.ReadModelUpdate) error {
	p.mu.Lock()
	p.ProcessUpdatesCalls++
	p.ReceivedBatches = append(p.ReceivedBatches, updates)
	p.mu.Unlock()

	if p.ProcessUpdatesFn != nil {
		return p.ProcessUpdatesFn(ctx, updates)
	}

	if p.processErr != nil {
		return p.processErr
	}

	return nil
}

// LastBatch returns the most recently received batch, or nil if none.
func (p *ProcessorSpy) LastBatch() []projections.ReadModelUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.ReceivedBatches) == 0 {
		return nil
	}
	return p.ReceivedBatches[len(p.ReceivedBatches)-1]
}

// UpdateCount returns the total number of update units received across calls.
func (p *ProcessorSpy) UpdateCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, batch := range p.ReceivedBatches {
		count += len(batch)
	}
	return count
}

// Reset clears all call counts and captured batches.
func (p *ProcessorSpy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ProcessUpdatesCalls = 0
	p.ReceivedBatches = nil
	p.processErr = nil
}
