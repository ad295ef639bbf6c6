package projections

import (
	"context"
	"fmt"

	"github.com/io-da/query"
)

// GenericQueryHandler answers queries of type T from the read side, producing
// a result of type R.
type GenericQueryHandler[T query.Query, R any] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// QueryProvider dispatches single-result queries to registered read-side
// handlers. It implements query.Handler so a query bus can route to it.
type QueryProvider interface {
	query.Handler
	RegisterHandler(name string, handler GenericQueryHandler[query.Query, any])
}

// QueryIteratorProvider dispatches multi-result queries and yields the
// elements one by one. It implements query.IteratorHandler.
type QueryIteratorProvider interface {
	query.IteratorHandler
	RegisterHandler(name string, handler GenericQueryHandler[query.Query, []any])
}

type handler struct {
	handlers map[string]GenericQueryHandler[query.Query, any]
}

func NewQueryHandler() QueryProvider {
	return &handler{
		handlers: make(map[string]GenericQueryHandler[query.Query, any]),
	}
}

// RegisterHandler stores a type-erased handler under the query type name.
// Registration happens during wiring, before the bus serves queries.
func (t *handler) RegisterHandler(name string, handler GenericQueryHandler[query.Query, any]) {
	if _, ok := t.handlers[name]; ok {
		panic("duplicate query handler " + name)
	}
	t.handlers[name] = handler
}

func (t *handler) Handle(ctx context.Context, qry query.Query, res *query.Result) error {
	provider, exists := t.handlers[TypeName(qry)]

	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)

	if err != nil {
		return err
	}

	res.Add(result)
	res.Done()

	return nil
}

type iteratorHandler struct {
	handlers map[string]GenericQueryHandler[query.Query, []any]
}

func NewQueryIteratorHandler() QueryIteratorProvider {
	return &iteratorHandler{
		handlers: make(map[string]GenericQueryHandler[query.Query, []any]),
	}
}

// RegisterHandler stores a type-erased handler under the query type name.
func (t *iteratorHandler) RegisterHandler(name string, handler GenericQueryHandler[query.Query, []any]) {
	if _, ok := t.handlers[name]; ok {
		panic("duplicate query handler " + name)
	}
	t.handlers[name] = handler
}

func (t *iteratorHandler) Handle(ctx context.Context, qry query.Query, res *query.IteratorResult) error {
	provider, exists := t.handlers[TypeName(qry)]

	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	results, err := provider.HandleQuery(ctx, qry)

	if err != nil {
		return err
	}

	for _, result := range results {
		res.Yield(result)
	}
	res.Done()

	return nil
}

// RegisterQueryHandler registers a typed handler on a QueryProvider, deriving
// the routing key from the query type.
//
// Example Usage:
//
//	provider := NewQueryHandler()
//	RegisterQueryHandler(provider, NewStoreQueryHandler(store))
func RegisterQueryHandler[T query.Query, R any](p QueryProvider, h GenericQueryHandler[T, R]) {
	var qry T
	p.RegisterHandler(TypeName(qry), erasedQueryHandler[T, R]{inner: h})
}

// RegisterIteratorQueryHandler registers a typed multi-result handler on a
// QueryIteratorProvider, deriving the routing key from the query type.
func RegisterIteratorQueryHandler[T query.Query, R any](p QueryIteratorProvider, h GenericQueryHandler[T, []R]) {
	var qry T
	p.RegisterHandler(TypeName(qry), erasedIteratorQueryHandler[T, R]{inner: h})
}

type erasedQueryHandler[T query.Query, R any] struct {
	inner GenericQueryHandler[T, R]
}

func (e erasedQueryHandler[T, R]) HandleQuery(ctx context.Context, qry query.Query) (any, error) {
	typed, ok := qry.(T)
	if !ok {
		return nil, fmt.Errorf("query handler: unexpected query type %T", qry)
	}
	return e.inner.HandleQuery(ctx, typed)
}

type erasedIteratorQueryHandler[T query.Query, R any] struct {
	inner GenericQueryHandler[T, []R]
}

func (e erasedIteratorQueryHandler[T, R]) HandleQuery(ctx context.Context, qry query.Query) ([]any, error) {
	typed, ok := qry.(T)
	if !ok {
		return nil, fmt.Errorf("query handler: unexpected query type %T", qry)
	}
	results, err := e.inner.HandleQuery(ctx, typed)
	if err != nil {
		return nil, err
	}
	erased := make([]any, len(results))
	for i, r := range results {
		erased[i] = r
	}
	return erased, nil
}

// ReadModelQuery is a by-id lookup: the bread-and-butter query a projection
// store answers directly.
type ReadModelQuery struct {
	ReadModelID string
}

func (q ReadModelQuery) ID() []byte {
	return []byte(q.ReadModelID)
}

// NewStoreQueryHandler answers ReadModelQuery lookups straight from a
// ReadModelStore. An absent model is not an error: the returned envelope
// reports Exists() == false, mirroring the store contract.
func NewStoreQueryHandler[T any](store ReadModelStore[T]) GenericQueryHandler[ReadModelQuery, ReadModelEnvelope[T]] {
	return storeQueryHandler[T]{store: store}
}

type storeQueryHandler[T any] struct {
	store ReadModelStore[T]
}

func (h storeQueryHandler[T]) HandleQuery(ctx context.Context, qry ReadModelQuery) (ReadModelEnvelope[T], error) {
	return h.store.Get(ctx, qry.ReadModelID)
}
