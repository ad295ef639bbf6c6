package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terraskye/projections"
)

type accountView struct {
	AccountID string `json:"account_id"`
	Balance   int    `json:"balance"`
}

// newTestStore connects to the database named by PROJECTIONS_POSTGRES_DSN and
// migrates a per-test table. Tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store[accountView] {
	t.Helper()

	dsn := os.Getenv("PROJECTIONS_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PROJECTIONS_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(pool.Close)

	table := fmt.Sprintf("read_models_test_%d", time.Now().UnixNano())
	store := NewStore[accountView](pool, WithTable(table))
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		dropTable(t, pool, table)
	})

	return store
}

func dropTable(t *testing.T, pool *pgxpool.Pool, table string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		t.Errorf("drop table %s: %v", table, err)
	}
}

func TestGetAbsent(t *testing.T) {
	store := newTestStore(t)

	env, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Exists() || env.HasVersion() {
		t.Fatalf("expected empty envelope, got version %d", env.Version)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	model := &accountView{AccountID: "acct-1", Balance: 100}
	if err := store.Replace(ctx, projections.NewReadModelEnvelope("acct-1", model, 3), 0); err != nil {
		t.Fatalf("replace: %v", err)
	}

	env, err := store.Get(ctx, "acct-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Version != 3 || env.ReadModel.Balance != 100 {
		t.Fatalf("expected balance 100 at version 3, got %d at %d", env.ReadModel.Balance, env.Version)
	}
}

func TestReplaceConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, projections.NewReadModelEnvelope("acct-1", &accountView{Balance: 1}, 5), 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Create over an existing row.
	err := store.Replace(ctx, projections.NewReadModelEnvelope("acct-1", &accountView{}, 1), 0)
	var conflict *projections.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *VersionConflictError, got %T: %v", err, err)
	}
	if conflict.ActualVersion != 5 {
		t.Fatalf("actual version = %d, want 5", conflict.ActualVersion)
	}

	// Update with a stale expected version.
	err = store.Replace(ctx, projections.NewReadModelEnvelope("acct-1", &accountView{}, 6), 4)
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *VersionConflictError, got %T: %v", err, err)
	}

	// Update with the right expected version wins.
	if err := store.Replace(ctx, projections.NewReadModelEnvelope("acct-1", &accountView{Balance: 2}, 6), 5); err != nil {
		t.Fatalf("update: %v", err)
	}

	env, err := store.Get(ctx, "acct-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Version != 6 || env.ReadModel.Balance != 2 {
		t.Fatalf("expected balance 2 at version 6, got %d at %d", env.ReadModel.Balance, env.Version)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	if err := store.Replace(ctx, projections.NewReadModelEnvelope("acct-1", &accountView{}, 1), 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "acct-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "acct-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	env, err := store.Get(ctx, "acct-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Exists() {
		t.Fatalf("expected the row to be gone")
	}
}
