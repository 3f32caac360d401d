package queries

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.SavedQuery, error) {
	query := `SELECT id, name, description, sql_text, server_id, user_id,
			created_at, updated_at, favorite, tags, sync_status
		FROM saved_queries WHERE id = ?`
	q, err := scanQuery(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select query: %w", err)
	}
	return q, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, q *models.SavedQuery) error {
	tags, err := json.Marshal(q.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `INSERT INTO saved_queries
			(id, name, description, sql_text, server_id, user_id, created_at, updated_at, favorite, tags, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			sql_text = excluded.sql_text,
			server_id = excluded.server_id,
			user_id = excluded.user_id,
			updated_at = excluded.updated_at,
			favorite = excluded.favorite,
			tags = excluded.tags,
			sync_status = excluded.sync_status`
	_, err = r.db.ExecContext(ctx, query,
		q.ID, q.Name, q.Description, q.SQLText, q.ServerID, q.UserID,
		q.CreatedAt.UnixMilli(), q.UpdatedAt.UnixMilli(), q.Favorite, string(tags), string(q.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to upsert query: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.SavedQuery, error) {
	query := `SELECT id, name, description, sql_text, server_id, user_id,
			created_at, updated_at, favorite, tags, sync_status
		FROM saved_queries WHERE user_id = ? ORDER BY updated_at DESC`
	return r.list(ctx, query, userID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.SavedQuery, error) {
	query := `SELECT id, name, description, sql_text, server_id, user_id,
			created_at, updated_at, favorite, tags, sync_status
		FROM saved_queries WHERE sync_status != ?`
	return r.list(ctx, query, string(models.StatusSynced))
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE saved_queries SET sync_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_queries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.SavedQuery, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queries: %w", err)
	}
	defer rows.Close()

	var result []models.SavedQuery
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuery(row rowScanner) (*models.SavedQuery, error) {
	var (
		q                    models.SavedQuery
		createdAt, updatedAt int64
		tags, status         string
	)
	err := row.Scan(&q.ID, &q.Name, &q.Description, &q.SQLText, &q.ServerID, &q.UserID,
		&createdAt, &updatedAt, &q.Favorite, &tags, &status)
	if err != nil {
		return nil, err
	}

	q.CreatedAt = time.UnixMilli(createdAt).UTC()
	q.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	q.SyncStatus = models.SyncStatus(status)
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &q, nil
}
