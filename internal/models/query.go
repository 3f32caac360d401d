package models

import "time"

// SavedQuery is a user-authored query persisted locally and replicated to the
// backend. While sync_status is not "synced" a matching sync-queue item is
// expected to exist (unless a pass is in flight).
type SavedQuery struct {
	// ID is a globally unique identifier for the query.
	ID string

	// Name is the display name shown in the console.
	Name string

	// Description is optional free-form text.
	Description string

	// SQLText is the query body.
	SQLText string

	// ServerID references the target server the query runs against.
	ServerID string

	// UserID is the owning user.
	UserID string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Favorite marks the query as pinned by the user.
	Favorite bool

	// Tags is a free-form label set.
	Tags []string

	SyncStatus SyncStatus
}
