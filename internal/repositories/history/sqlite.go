package history

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

const selectColumns = `id, sql_text, server_id, executed_at, duration_ms,
	row_count, status, error_message, user_id, sync_status`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.QueryHistory, error) {
	query := `SELECT ` + selectColumns + ` FROM query_history WHERE id = ?`
	h, err := scanHistory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select history row: %w", err)
	}
	return h, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, h *models.QueryHistory) error {
	query := `INSERT INTO query_history
			(id, sql_text, server_id, executed_at, duration_ms, row_count, status, error_message, user_id, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var rowCount any
	if h.RowCount != nil {
		rowCount = *h.RowCount
	}
	var errMsg any
	if h.ErrorMessage != "" {
		errMsg = h.ErrorMessage
	}

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.SQLText, h.ServerID, h.ExecutedAt.UnixMilli(), h.Duration.Milliseconds(),
		rowCount, h.Status, errMsg, h.UserID, string(h.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to insert history row: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.QueryHistory, error) {
	query := `SELECT ` + selectColumns + ` FROM query_history
		WHERE user_id = ? ORDER BY executed_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.QueryHistory, error) {
	query := `SELECT ` + selectColumns + ` FROM query_history WHERE sync_status != ?`
	return r.list(ctx, query, string(models.StatusSynced))
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE query_history SET sync_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history rows: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.QueryHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select history rows: %w", err)
	}
	defer rows.Close()

	var result []models.QueryHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*models.QueryHistory, error) {
	var (
		h                      models.QueryHistory
		executedAt, durationMS int64
		rowCount               sql.NullInt64
		errMsg                 sql.NullString
		status                 string
	)
	err := row.Scan(&h.ID, &h.SQLText, &h.ServerID, &executedAt, &durationMS,
		&rowCount, &h.Status, &errMsg, &h.UserID, &status)
	if err != nil {
		return nil, err
	}

	h.ExecutedAt = time.UnixMilli(executedAt).UTC()
	h.Duration = time.Duration(durationMS) * time.Millisecond
	if rowCount.Valid {
		v := rowCount.Int64
		h.RowCount = &v
	}
	h.ErrorMessage = errMsg.String
	h.SyncStatus = models.SyncStatus(status)
	return &h, nil
}
