package projections

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
)

// UpdateProcessor consumes grouped update units and brings the read model
// store in line with them. It is the surface decorators wrap (logging,
// telemetry) and the surface ingestion hands batches to.
type UpdateProcessor interface {
	// ProcessUpdates processes each update unit in order and stops at the
	// first unit that fails permanently. Processing a batch twice is safe:
	// reconciliation skips already-applied events.
	ProcessUpdates(ctx context.Context, updates []ReadModelUpdate) error
}

// UpdateProcessorFunc adapts an ordinary function to an UpdateProcessor, for
// middleware and tests.
type UpdateProcessorFunc func(ctx context.Context, updates []ReadModelUpdate) error

func (f UpdateProcessorFunc) ProcessUpdates(ctx context.Context, updates []ReadModelUpdate) error {
	return f(ctx, updates)
}

// ProcessorOption defines a function type that modifies processorOptions.
// These options are applied when constructing a NewStoreProcessor.
type ProcessorOption func(*processorOptions)

// processorOptions defines configuration for a StoreProcessor.
//
// Fields:
//   - RetryStrategy: Produces a fresh BackOff per update unit. BackOff values
//     are stateful, so sharing one across units would carry elapsed time and
//     intervals from one unit into the next.
//   - ContextFactory: Produces the ReadModelContext handed to the applier.
type processorOptions struct {
	RetryStrategy  func() backoff.BackOff
	ContextFactory ReadModelContextFactory
}

// WithRetryStrategy sets the retry strategy factory for a NewStoreProcessor.
//
// The factory is invoked once per update unit attempt cycle; the produced
// BackOff controls how often and with what delay the processor re-runs the
// load/reconcile/write cycle after a version conflict or transient store
// failure.
//
// Usage:
//
//	processor := NewStoreProcessor(store, manager, WithRetryStrategy(func() backoff.BackOff {
//	    return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10)
//	}))
func WithRetryStrategy(strategy func() backoff.BackOff) ProcessorOption {
	return func(cfg *processorOptions) { cfg.RetryStrategy = strategy }
}

// WithContextFactory sets the ReadModelContext factory for a NewStoreProcessor.
//
// A fresh context is created for every cycle attempt so deletion flags never
// leak between attempts.
//
// Usage:
//
//	processor := NewStoreProcessor(store, manager, WithContextFactory(myFactory))
func WithContextFactory(factory ReadModelContextFactory) ProcessorOption {
	return func(cfg *processorOptions) { cfg.ContextFactory = factory }
}

// StoreProcessor drives the full projection cycle against a ReadModelStore:
// load the stored envelope, reconcile it with the update unit, and persist the
// outcome under an optimistic concurrency check.
//
// T represents the read model document type.
type StoreProcessor[T any] struct {
	store   ReadModelStore[T]
	manager *ReadStoreManager[T]
	cfg     processorOptions
}

// NewStoreProcessor returns a processor that persists reconciliation outcomes
// of read models of type T.
//
// Parameters:
//   - store: The versioned document store holding the read models.
//   - manager: The reconciliation manager producing updated envelopes.
//   - opts: Optional ProcessorOption values for customizing behavior, such as:
//   - RetryStrategy: BackOff factory for conflict/transient retries
//     (default: exponential, capped at 5 retries per unit).
//   - ContextFactory: ReadModelContext construction (default NewReadModelContext).
//
// Behavior Details:
//   - Units are processed sequentially in the order given; different read
//     models never share an attempt, so per-unit failure isolation holds.
//   - Per attempt the processor loads the envelope, lets the manager
//     reconcile, and then either does nothing (Unmodified), deletes the
//     document (applier marked the context for deletion), or replaces it
//     conditioned on the version observed at load time.
//   - A *VersionConflictError or *TransientError re-runs the attempt from a
//     fresh load; every other error aborts the unit and ProcessUpdates
//     returns it. After retries are exhausted the last conflict is returned.
//   - Context cancellation stops retrying and stops between units.
//
// Example Usage:
//
//	manager := NewReadStoreManager(source, factory, applier)
//	processor := NewStoreProcessor(store, manager)
//	err := processor.ProcessUpdates(ctx, updates)
func NewStoreProcessor[T any](
	store ReadModelStore[T],
	manager *ReadStoreManager[T],
	opts ...ProcessorOption,
) *StoreProcessor[T] {
	cfg := processorOptions{
		RetryStrategy: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
		},
		ContextFactory: NewReadModelContext,
	}
	for _, o := range opts {
		o(&cfg)
	}

	return &StoreProcessor[T]{
		store:   store,
		manager: manager,
		cfg:     cfg,
	}
}

// ProcessUpdates implements UpdateProcessor.
func (p *StoreProcessor[T]) ProcessUpdates(ctx context.Context, updates []ReadModelUpdate) error {
	for _, update := range updates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processUpdate(ctx, update); err != nil {
			return err
		}
	}
	return nil
}

func (p *StoreProcessor[T]) processUpdate(ctx context.Context, update ReadModelUpdate) error {
	// Contract violations never reach the store.
	if len(update.Envelopes) == 0 {
		return fmt.Errorf("process update for read model %q: %w", update.ReadModelID, ErrEmptyUpdateBatch)
	}

	ctx = WithReadModelID(ctx, update.ReadModelID)

	operation := func() error {
		envelope, err := p.store.Get(ctx, update.ReadModelID)
		if err != nil {
			return classify(fmt.Errorf("process update for read model %q: load failed: %w", update.ReadModelID, err))
		}

		rmctx := p.cfg.ContextFactory(update.ReadModelID)

		result, err := p.manager.Update(ctx, rmctx, update.Envelopes, envelope)
		if err != nil {
			return classify(err)
		}

		if !result.IsModified {
			return nil
		}

		if rmctx.MarkedForDeletion() {
			if err := p.store.Delete(ctx, update.ReadModelID); err != nil {
				return classify(fmt.Errorf("process update for read model %q: delete failed: %w", update.ReadModelID, err))
			}
			return nil
		}

		// Conditioned on the version observed at load time: if another
		// writer advanced the document since, this conflicts and the cycle
		// re-runs from a fresh load.
		if err := p.store.Replace(ctx, result.Envelope, envelope.Version); err != nil {
			return classify(fmt.Errorf("process update for read model %q: replace failed: %w", update.ReadModelID, err))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(p.cfg.RetryStrategy(), ctx))
}

// classify marks everything except version conflicts and transient store
// failures permanent so the backoff loop stops immediately.
func classify(err error) error {
	if IsRetryable(err) {
		return err
	}
	return backoff.Permanent(err)
}
