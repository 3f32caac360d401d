package models

import (
	"encoding/json"
	"time"
)

// SyncQueueItem is a pending mutation recorded while offline, replayed
// against the backend on the next synchronization pass. The queue holds at
// most one item per (EntityType, EntityID): a newer mutation replaces the
// older one.
type SyncQueueItem struct {
	ID         string
	EntityType EntityType
	EntityID   string
	Action     Action

	// Payload is a snapshot of the record at enqueue time. Empty for deletes.
	Payload json.RawMessage

	CreatedAt time.Time

	// RetryCount is the number of failed reconciliation attempts so far.
	RetryCount int

	// LastError is the message of the most recent failure, if any.
	LastError string
}
