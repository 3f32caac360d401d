// Package store owns the durable local cache: a single shared SQLite handle,
// schema migrations, and the typed repositories built on top of it. All other
// components route through this handle rather than opening their own
// connections.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/filex"
	"github.com/querygate/offline/internal/logging"
	"github.com/querygate/offline/internal/repositories/history"
	"github.com/querygate/offline/internal/repositories/queries"
	"github.com/querygate/offline/internal/repositories/servers"
	"github.com/querygate/offline/internal/repositories/settings"
	"github.com/querygate/offline/internal/repositories/syncqueue"
	"github.com/querygate/offline/internal/store/migrations"
)

// Store bundles the shared database handle and the per-collection
// repositories.
type Store struct {
	db       *sql.DB
	degraded bool

	Queries  queries.Repository
	History  history.Repository
	Servers  servers.Repository
	Queue    syncqueue.Repository
	Settings settings.Repository
}

// RunMigrations applies the embedded schema migrations. Idempotent: a
// database that is already current is left untouched.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating on first run) the local cache at path and prepares its
// collections.
//
// If the persistent store cannot be opened or migrated, Open degrades to an
// in-memory database instead of failing: the returned *Store is usable for
// the life of the process, and the returned error wraps
// common.ErrStorageUnavailable so the caller can surface a warning. Only when
// even the in-memory fallback fails is the store nil.
func Open(ctx context.Context, path string, log logging.Logger) (*Store, error) {
	db, err := openAndMigrate(ctx, path)
	if err == nil {
		return newStore(db, false), nil
	}

	log.Warn(ctx, "persistent store unavailable, falling back to in-memory", "path", path, "error", err)

	mem, memErr := openAndMigrate(ctx, ":memory:")
	if memErr != nil {
		return nil, fmt.Errorf("in-memory fallback failed: %w", memErr)
	}

	return newStore(mem, true), fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
}

func openAndMigrate(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn != ":memory:" {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and serializes
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func newStore(db *sql.DB, degraded bool) *Store {
	return &Store{
		db:       db,
		degraded: degraded,
		Queries:  queries.NewSQLiteRepository(db),
		History:  history.NewSQLiteRepository(db),
		Servers:  servers.NewSQLiteRepository(db),
		Queue:    syncqueue.NewSQLiteRepository(db),
		Settings: settings.NewSQLiteRepository(db),
	}
}

// DB exposes the shared handle for transactional work via dbx.WithTx.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Degraded reports whether the store fell back to in-memory operation.
func (s *Store) Degraded() bool {
	return s.degraded
}

// SizeBytes returns a rough on-disk size estimate (page_count × page_size).
// Zero in degraded mode.
func (s *Store) SizeBytes(ctx context.Context) (int64, error) {
	if s.degraded {
		return 0, nil
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to read page_count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to read page_size: %w", err)
	}
	return pageCount * pageSize, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
