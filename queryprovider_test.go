package projections_test

import (
	"context"
	"errors"
	"testing"

	"github.com/terraskye/projections"
	"github.com/terraskye/projections/fixtures"
)

type customerOrders struct {
	CustomerID string
}

func (q customerOrders) ID() []byte {
	return []byte(q.CustomerID)
}

type customerOrdersHandler struct {
	result []string
	err    error
}

func (h *customerOrdersHandler) HandleQuery(ctx context.Context, qry customerOrders) ([]string, error) {
	return h.result, h.err
}

func TestReadModelQueryID(t *testing.T) {
	qry := projections.ReadModelQuery{ReadModelID: "order-42"}
	if string(qry.ID()) != "order-42" {
		t.Fatalf("expected query id to carry the read model id, got %q", qry.ID())
	}
}

func TestStoreQueryHandler_ReturnsStoredEnvelope(t *testing.T) {
	store := fixtures.NewReadStoreSpy[fixtures.OrderSummary]()
	store.Seed("order-1", &fixtures.OrderSummary{OrderID: "order-1", Total: 250}, 4)

	handler := projections.NewStoreQueryHandler[fixtures.OrderSummary](store)

	env, err := handler.HandleQuery(context.Background(), projections.ReadModelQuery{ReadModelID: "order-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.Exists() {
		t.Fatalf("expected the stored model")
	}
	if env.Version != 4 {
		t.Fatalf("expected version 4, got %d", env.Version)
	}
	if env.ReadModel.Total != 250 {
		t.Fatalf("expected total 250, got %d", env.ReadModel.Total)
	}
}

func TestStoreQueryHandler_AbsentModelIsNotAnError(t *testing.T) {
	store := fixtures.NewReadStoreSpy[fixtures.OrderSummary]()
	handler := projections.NewStoreQueryHandler[fixtures.OrderSummary](store)

	env, err := handler.HandleQuery(context.Background(), projections.ReadModelQuery{ReadModelID: "missing"})
	if err != nil {
		t.Fatalf("expected no error for an absent model, got %v", err)
	}
	if env.Exists() {
		t.Fatalf("expected no model")
	}
	if env.ReadModelID != "missing" {
		t.Fatalf("expected the queried id on the envelope, got %q", env.ReadModelID)
	}
}

func TestStoreQueryHandler_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("store offline")
	store := fixtures.NewReadStoreSpy[fixtures.OrderSummary]().FailOnGet(storeErr)
	handler := projections.NewStoreQueryHandler[fixtures.OrderSummary](store)

	_, err := handler.HandleQuery(context.Background(), projections.ReadModelQuery{ReadModelID: "order-1"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected the store error, got %v", err)
	}
}

func TestRegisterQueryHandler_DuplicatePanics(t *testing.T) {
	provider := projections.NewQueryHandler()
	store := fixtures.NewReadStoreSpy[fixtures.OrderSummary]()

	projections.RegisterQueryHandler(provider, projections.NewStoreQueryHandler[fixtures.OrderSummary](store))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for a duplicate query registration")
		}
	}()
	projections.RegisterQueryHandler(provider, projections.NewStoreQueryHandler[fixtures.OrderSummary](store))
}

func TestRegisterIteratorQueryHandler_Registers(t *testing.T) {
	provider := projections.NewQueryIteratorHandler()
	projections.RegisterIteratorQueryHandler(provider, &customerOrdersHandler{result: []string{"order-1", "order-2"}})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for a duplicate query registration")
		}
	}()
	projections.RegisterIteratorQueryHandler(provider, &customerOrdersHandler{})
}
