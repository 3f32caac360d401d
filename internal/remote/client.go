// Package remote reaches the backend sync API. The wire contract the engine
// depends on is deliberately small: an idempotent create-or-update keyed by
// entity id, a delete-by-id, and a health probe.
package remote

import (
	"context"

	"github.com/querygate/offline/internal/models"
)

// Client is the backend contract consumed by the synchronization engine.
// All operations are idempotent, so replaying a mutation is always safe.
type Client interface {
	// Ping probes backend reachability.
	Ping(ctx context.Context) error

	// Upsert replays a create-or-update of the entity. payload is the JSON
	// snapshot recorded at mutation time.
	Upsert(ctx context.Context, entityType models.EntityType, id string, payload []byte) error

	// Delete removes the entity by id. Deleting an already absent entity is
	// a success.
	Delete(ctx context.Context, entityType models.EntityType, id string) error
}
