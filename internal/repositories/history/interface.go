// Package history persists the query execution log. Rows are append-only:
// after insertion only the sync status ever changes.
package history

import (
	"context"

	"github.com/querygate/offline/internal/models"
)

// Repository is the storage contract for the execution history.
type Repository interface {
	// Get returns the history row with the given id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.QueryHistory, error)

	// Insert appends a new history row.
	Insert(ctx context.Context, h *models.QueryHistory) error

	// ListByUser returns up to limit rows owned by userID, most recent
	// execution first. limit <= 0 means no bound.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.QueryHistory, error)

	// ListUnsynced returns rows whose sync status is pending or error.
	ListUnsynced(ctx context.Context) ([]models.QueryHistory, error)

	// SetSyncStatus updates only the sync status of the given row.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int64, error)
}
