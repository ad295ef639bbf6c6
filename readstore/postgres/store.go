// Package postgres provides a ReadModelStore backed by a PostgreSQL document
// table, one row per read model, with the version column carrying the
// optimistic concurrency check.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terraskye/projections"
)

// Open connects a pgxpool with sane pool settings and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	table string
}

// WithTable sets the table name, so multiple read model types can share one
// database. Defaults to "read_models".
func WithTable(table string) StoreOption {
	return func(o *storeOptions) { o.table = table }
}

// Store implements projections.ReadModelStore[T] on a pgx connection pool.
// Several stores with distinct tables can share the same pool.
type Store[T any] struct {
	pool  *pgxpool.Pool
	table string
}

func NewStore[T any](pool *pgxpool.Pool, opts ...StoreOption) *Store[T] {
	cfg := storeOptions{table: "read_models"}
	for _, o := range opts {
		o(&cfg)
	}
	return &Store[T]{pool: pool, table: cfg.table}
}

// Migrate creates the document table if it does not exist yet.
func (s *Store[T]) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         text PRIMARY KEY,
			data       jsonb NOT NULL,
			version    bigint NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`, s.table))
	if err != nil {
		return classify(fmt.Errorf("migrate %s: %w", s.table, err))
	}
	return nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (projections.ReadModelEnvelope[T], error) {
	var (
		data    []byte
		version int64
	)
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT data, version FROM %s WHERE id = $1
	`, s.table), id).Scan(&data, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return projections.EmptyReadModelEnvelope[T](id), nil
	}
	if err != nil {
		return projections.EmptyReadModelEnvelope[T](id), classify(fmt.Errorf("get read model %q: %w", id, err))
	}

	var model T
	if err := json.Unmarshal(data, &model); err != nil {
		return projections.EmptyReadModelEnvelope[T](id), fmt.Errorf("get read model %q: decode: %w", id, err)
	}
	return projections.NewReadModelEnvelope(id, &model, uint64(version)), nil
}

func (s *Store[T]) Replace(ctx context.Context, envelope projections.ReadModelEnvelope[T], expectedVersion uint64) error {
	data, err := json.Marshal(envelope.ReadModel)
	if err != nil {
		return fmt.Errorf("replace read model %q: encode: %w", envelope.ReadModelID, err)
	}

	var tag pgconn.CommandTag
	if expectedVersion == 0 {
		tag, err = s.pool.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, data, version) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, s.table), envelope.ReadModelID, data, int64(envelope.Version))
	} else {
		tag, err = s.pool.Exec(ctx, fmt.Sprintf(`
			UPDATE %s SET data = $2, version = $3, updated_at = now()
			WHERE id = $1 AND version = $4
		`, s.table), envelope.ReadModelID, data, int64(envelope.Version), int64(expectedVersion))
	}
	if err != nil {
		return classify(fmt.Errorf("replace read model %q: %w", envelope.ReadModelID, err))
	}
	if tag.RowsAffected() == 0 {
		return s.conflict(ctx, envelope.ReadModelID, expectedVersion)
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE id = $1
	`, s.table), id)
	if err != nil {
		return classify(fmt.Errorf("delete read model %q: %w", id, err))
	}
	return nil
}

// conflict reports the stored version a failed conditional write lost to.
// The row may have been deleted in between, in which case the actual version
// is 0.
func (s *Store[T]) conflict(ctx context.Context, id string, expectedVersion uint64) error {
	var actual int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT version FROM %s WHERE id = $1
	`, s.table), id).Scan(&actual)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return classify(fmt.Errorf("replace read model %q: resolve conflict: %w", id, err))
	}
	return &projections.VersionConflictError{
		ReadModelID:     id,
		ExpectedVersion: expectedVersion,
		ActualVersion:   uint64(actual),
	}
}

// classify wraps connection-level failures as transient so the processor
// retries the cycle. Errors the server itself reported are permanent:
// re-running the same statement yields the same rejection.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return projections.Transient(err)
}
