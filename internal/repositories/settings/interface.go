// Package settings persists the singleton application-settings record. The
// row is seeded by the schema migration, so Get never misses on a migrated
// database.
package settings

import (
	"context"
	"time"

	"github.com/querygate/offline/internal/models"
)

// Repository is the storage contract for the settings singleton.
type Repository interface {
	// Get returns the settings record.
	Get(ctx context.Context) (*models.AppSettings, error)

	// Update replaces the whole settings record.
	Update(ctx context.Context, s *models.AppSettings) error

	// SetLastSync stamps the completion time of the most recent sync pass.
	SetLastSync(ctx context.Context, at time.Time) error

	// SetOfflineEnabled flips only the offline-mode flag.
	SetOfflineEnabled(ctx context.Context, enabled bool) error
}
