// Package queries persists user-authored saved queries.
package queries

import (
	"context"

	"github.com/querygate/offline/internal/models"
)

// Repository is the storage contract for saved queries.
type Repository interface {
	// Get returns the query with the given id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.SavedQuery, error)

	// Upsert inserts or fully replaces a query by primary key.
	Upsert(ctx context.Context, q *models.SavedQuery) error

	// Delete removes the query. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// ListByUser returns all queries owned by userID.
	ListByUser(ctx context.Context, userID string) ([]models.SavedQuery, error)

	// ListUnsynced returns queries whose sync status is pending or error.
	ListUnsynced(ctx context.Context) ([]models.SavedQuery, error)

	// SetSyncStatus updates only the sync status of the given query.
	// Missing ids are ignored.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// Count returns the number of stored queries.
	Count(ctx context.Context) (int64, error)
}
