package models

import (
	"encoding/json"
	"time"
)

// AppSettings is the singleton configuration record persisted alongside the
// cached data. Each component reads and writes only its own aspect.
type AppSettings struct {
	// OfflineEnabled gates the offline write-through behavior.
	OfflineEnabled bool

	// LastSync is the completion time of the most recent synchronization
	// pass, successful or not. Nil before the first pass.
	LastSync *time.Time

	// CacheExpiryDays is the server-metadata TTL in days.
	CacheExpiryDays int

	// SyncOnStartup triggers an immediate pass when the engine starts.
	SyncOnStartup bool

	// StorageQuotaMB is a hint for the local store size; diagnostics only.
	StorageQuotaMB int

	// Preferences is an opaque per-user UI preference blob.
	Preferences json.RawMessage
}

// DefaultSettings returns the record written at first initialization.
func DefaultSettings() *AppSettings {
	return &AppSettings{
		OfflineEnabled:  true,
		CacheExpiryDays: 7,
		SyncOnStartup:   true,
		StorageQuotaMB:  50,
	}
}
