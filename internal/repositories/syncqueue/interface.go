// Package syncqueue persists mutations performed while disconnected until a
// synchronization pass replays them against the backend. The queue keeps at
// most one item per (entity type, entity id): enqueueing a newer mutation
// replaces the older one.
package syncqueue

import (
	"context"

	"github.com/querygate/offline/internal/models"
)

// Repository is the storage contract for the sync queue.
type Repository interface {
	// Enqueue inserts the item, replacing any existing item for the same
	// (EntityType, EntityID). Replacement resets the retry bookkeeping.
	Enqueue(ctx context.Context, item *models.SyncQueueItem) error

	// GetByEntity returns the queued item for the entity, or
	// common.ErrNotFound.
	GetByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.SyncQueueItem, error)

	// ListAll returns every queued item. No cross-item ordering is
	// guaranteed.
	ListAll(ctx context.Context) ([]models.SyncQueueItem, error)

	// ListRunnable returns items whose retry count is below maxRetries.
	ListRunnable(ctx context.Context, maxRetries int) ([]models.SyncQueueItem, error)

	// Remove deletes the item by id. Missing ids are not an error.
	Remove(ctx context.Context, id string) error

	// RemoveByEntity deletes the item for the entity, if any.
	RemoveByEntity(ctx context.Context, entityType models.EntityType, entityID string) error

	// RecordFailure increments the item's retry count and stores the error
	// message of the failed attempt.
	RecordFailure(ctx context.Context, id string, message string) error

	// Count returns the number of queued items.
	Count(ctx context.Context) (int64, error)

	// CountDead returns the number of items at or past maxRetries, which
	// passes no longer attempt.
	CountDead(ctx context.Context, maxRetries int) (int64, error)
}
