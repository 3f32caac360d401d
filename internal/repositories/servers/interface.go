// Package servers caches server connection descriptors and catalog metadata
// fetched from the backend. Rows expire after the configured TTL.
package servers

import (
	"context"
	"time"

	"github.com/querygate/offline/internal/models"
)

// Repository is the storage contract for the server-metadata cache.
type Repository interface {
	// Get returns the cache row for the server id, or common.ErrNotFound.
	// Staleness is the caller's concern; Get returns whatever is stored.
	Get(ctx context.Context, id string) (*models.ServerCache, error)

	// Upsert inserts or fully replaces a cache row by server id.
	Upsert(ctx context.Context, s *models.ServerCache) error

	// Delete removes the cache row. Missing ids are not an error.
	Delete(ctx context.Context, id string) error

	// ListAll returns every cache row.
	ListAll(ctx context.Context) ([]models.ServerCache, error)

	// DeleteOlderThan removes rows cached before the cutoff and reports how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of cache rows.
	Count(ctx context.Context) (int64, error)
}
