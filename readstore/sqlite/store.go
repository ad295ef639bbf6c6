// Package sqlite provides a ReadModelStore on a local SQLite file, the same
// document table shape as the postgres backend. Useful for single-node
// deployments and hermetic tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/terraskye/projections"
)

const timeFormat = time.RFC3339Nano

// Open opens the SQLite database at path with WAL and a busy timeout, so
// concurrent projection workers block briefly instead of failing on
// contention.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	table string
}

// WithTable sets the table name. Defaults to "read_models".
func WithTable(table string) StoreOption {
	return func(o *storeOptions) { o.table = table }
}

// Store implements projections.ReadModelStore[T] on a database/sql handle.
type Store[T any] struct {
	db    *sql.DB
	table string
}

func NewStore[T any](db *sql.DB, opts ...StoreOption) *Store[T] {
	cfg := storeOptions{table: "read_models"}
	for _, o := range opts {
		o(&cfg)
	}
	return &Store[T]{db: db, table: cfg.table}
}

// Migrate creates the document table if it does not exist yet.
func (s *Store[T]) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         text PRIMARY KEY,
			data       blob NOT NULL,
			version    integer NOT NULL,
			updated_at text NOT NULL
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
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT data, version FROM %s WHERE id = ?
	`, s.table), id).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
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
	now := time.Now().UTC().Format(timeFormat)

	var res sql.Result
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, data, version, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, s.table), envelope.ReadModelID, data, int64(envelope.Version), now)
	} else {
		res, err = s.db.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s SET data = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`, s.table), data, int64(envelope.Version), now, envelope.ReadModelID, int64(expectedVersion))
	}
	if err != nil {
		return classify(fmt.Errorf("replace read model %q: %w", envelope.ReadModelID, err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace read model %q: rows affected: %w", envelope.ReadModelID, err)
	}
	if affected == 0 {
		return s.conflict(ctx, envelope.ReadModelID, expectedVersion)
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE id = ?
	`, s.table), id)
	if err != nil {
		return classify(fmt.Errorf("delete read model %q: %w", id, err))
	}
	return nil
}

func (s *Store[T]) conflict(ctx context.Context, id string, expectedVersion uint64) error {
	var actual int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT version FROM %s WHERE id = ?
	`, s.table), id).Scan(&actual)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return classify(fmt.Errorf("replace read model %q: resolve conflict: %w", id, err))
	}
	return &projections.VersionConflictError{
		ReadModelID:     id,
		ExpectedVersion: expectedVersion,
		ActualVersion:   uint64(actual),
	}
}

// classify wraps lock contention as transient. The busy timeout absorbs most
// of it; whatever still surfaces is safe to retry.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// Mask down to the primary result code: busy and locked both come in
		// extended variants.
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return projections.Transient(err)
		}
		return err
	}
	return err
}
