package syncqueue

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

func (r *SQLiteRepository) Enqueue(ctx context.Context, item *models.SyncQueueItem) error {
	query := `INSERT INTO sync_queue
			(id, entity_type, entity_id, action, payload, created_at, retry_count, last_error)
		VALUES (?, ?, ?, ?, ?, ?, 0, NULL)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET
			id = excluded.id,
			action = excluded.action,
			payload = excluded.payload,
			created_at = excluded.created_at,
			retry_count = 0,
			last_error = NULL`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, string(item.EntityType), item.EntityID, string(item.Action),
		string(item.Payload), item.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.SyncQueueItem, error) {
	query := `SELECT id, entity_type, entity_id, action, payload, created_at, retry_count, last_error
		FROM sync_queue WHERE entity_type = ? AND entity_id = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, string(entityType), entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select queue item: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.SyncQueueItem, error) {
	query := `SELECT id, entity_type, entity_id, action, payload, created_at, retry_count, last_error
		FROM sync_queue`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) ListRunnable(ctx context.Context, maxRetries int) ([]models.SyncQueueItem, error) {
	query := `SELECT id, entity_type, entity_id, action, payload, created_at, retry_count, last_error
		FROM sync_queue WHERE retry_count < ?`
	return r.list(ctx, query, maxRetries)
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove queue item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveByEntity(ctx context.Context, entityType models.EntityType, entityID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE entity_type = ? AND entity_id = ?`,
		string(entityType), entityID)
	if err != nil {
		return fmt.Errorf("failed to remove queue item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, id string, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE id = ?`,
		message, id)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountDead(ctx context.Context, maxRetries int) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue WHERE retry_count >= ?`, maxRetries).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count dead queue items: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.SyncQueueItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue items: %w", err)
	}
	defer rows.Close()

	var result []models.SyncQueueItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.SyncQueueItem, error) {
	var (
		item               models.SyncQueueItem
		entityType, action string
		payload            string
		createdAt          int64
		lastError          sql.NullString
	)
	err := row.Scan(&item.ID, &entityType, &item.EntityID, &action, &payload,
		&createdAt, &item.RetryCount, &lastError)
	if err != nil {
		return nil, err
	}

	item.EntityType = models.EntityType(entityType)
	item.Action = models.Action(action)
	if payload != "" {
		item.Payload = []byte(payload)
	}
	item.CreatedAt = time.UnixMilli(createdAt).UTC()
	item.LastError = lastError.String
	return &item, nil
}
