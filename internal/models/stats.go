package models

import "time"

// StorageStats is a diagnostic snapshot of the local store. Produced by a
// read-only path; values may be momentarily inconsistent with each other.
type StorageStats struct {
	SavedQueries int64
	QueryHistory int64
	ServerCache  int64
	QueueItems   int64

	// DeadQueueItems counts items at or past the retry cap, which passes
	// skip.
	DeadQueueItems int64

	// SizeBytes is a rough estimate of the database file size. Zero in
	// degraded (in-memory) mode.
	SizeBytes int64

	LastSync *time.Time
}
