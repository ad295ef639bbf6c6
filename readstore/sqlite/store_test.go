package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/terraskye/projections"
)

type gameView struct {
	GameID string `json:"game_id"`
	Score  int    `json:"score"`
}

func newTestStore(t *testing.T) *Store[gameView] {
	t.Helper()

	path := filepath.Join(t.TempDir(), "readmodels.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})

	store := NewStore[gameView](db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
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

	model := &gameView{GameID: "game-1", Score: 42}
	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", model, 3), 0); err != nil {
		t.Fatalf("replace: %v", err)
	}

	env, err := store.Get(ctx, "game-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Version != 3 {
		t.Fatalf("version = %d, want 3", env.Version)
	}
	if env.ReadModel.Score != 42 {
		t.Fatalf("score = %d, want 42", env.ReadModel.Score)
	}
}

func TestReplaceCreateConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{}, 2), 0); err != nil {
		t.Fatalf("replace: %v", err)
	}

	err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{}, 1), 0)
	var conflict *projections.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *VersionConflictError, got %T: %v", err, err)
	}
	if conflict.ActualVersion != 2 {
		t.Fatalf("actual version = %d, want 2", conflict.ActualVersion)
	}
}

func TestReplaceUpdateAndConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{Score: 1}, 5), 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{Score: 2}, 6), 5); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A writer holding the stale version 5 must lose.
	err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{Score: 3}, 7), 5)
	var conflict *projections.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *VersionConflictError, got %T: %v", err, err)
	}
	if conflict.ExpectedVersion != 5 || conflict.ActualVersion != 6 {
		t.Fatalf("conflict = %d/%d, want 5/6", conflict.ExpectedVersion, conflict.ActualVersion)
	}

	env, err := store.Get(ctx, "game-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.ReadModel.Score != 2 || env.Version != 6 {
		t.Fatalf("failed replace must not change the row, got score %d at version %d", env.ReadModel.Score, env.Version)
	}
}

func TestReplaceAbsentWithNonZeroExpected(t *testing.T) {
	store := newTestStore(t)

	err := store.Replace(context.Background(), projections.NewReadModelEnvelope("missing", &gameView{}, 6), 5)
	var conflict *projections.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *VersionConflictError, got %T: %v", err, err)
	}
	if conflict.ActualVersion != 0 {
		t.Fatalf("actual version = %d, want 0", conflict.ActualVersion)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{}, 1), 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "game-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "game-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	env, err := store.Get(ctx, "game-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Exists() {
		t.Fatalf("expected the row to be gone")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmodels.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store := NewStore[gameView](db)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{Score: 9}, 4), 0); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		_ = reopened.Close()
	}()

	env, err := NewStore[gameView](reopened).Get(ctx, "game-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.Version != 4 || env.ReadModel.Score != 9 {
		t.Fatalf("expected score 9 at version 4, got %d at %d", env.ReadModel.Score, env.Version)
	}
}

func TestCustomTableName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmodels.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	store := NewStore[gameView](db, WithTable("game_views"))
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.Replace(ctx, projections.NewReadModelEnvelope("game-1", &gameView{}, 1), 0); err != nil {
		t.Fatalf("replace: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM game_views`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	// The default table was never created.
	var name sql.NullString
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='read_models'`).Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no default table, got %v / %v", name.String, err)
	}
}
