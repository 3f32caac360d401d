package servers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/dbx"
	"github.com/querygate/offline/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.ServerCache, error) {
	query := `SELECT id, name, host, port, engine, cached_at, metadata
		FROM server_cache WHERE id = ?`
	s, err := scanServer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select cache row: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, s *models.ServerCache) error {
	query := `INSERT INTO server_cache (id, name, host, port, engine, cached_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			host = excluded.host,
			port = excluded.port,
			engine = excluded.engine,
			cached_at = excluded.cached_at,
			metadata = excluded.metadata`

	var metadata any
	if len(s.Metadata) > 0 {
		metadata = string(s.Metadata)
	}

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Host, s.Port, s.Engine, s.CachedAt.UnixMilli(), metadata)
	if err != nil {
		return fmt.Errorf("failed to upsert cache row: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM server_cache WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cache row: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.ServerCache, error) {
	query := `SELECT id, name, host, port, engine, cached_at, metadata FROM server_cache`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select cache rows: %w", err)
	}
	defer rows.Close()

	var result []models.ServerCache
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM server_cache WHERE cached_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM server_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache rows: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServer(row rowScanner) (*models.ServerCache, error) {
	var (
		s        models.ServerCache
		cachedAt int64
		metadata sql.NullString
	)
	err := row.Scan(&s.ID, &s.Name, &s.Host, &s.Port, &s.Engine, &cachedAt, &metadata)
	if err != nil {
		return nil, err
	}

	s.CachedAt = time.UnixMilli(cachedAt).UTC()
	if metadata.Valid {
		s.Metadata = []byte(metadata.String)
	}
	return &s, nil
}
