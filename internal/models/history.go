package models

import "time"

// QueryHistory records one query execution. Rows are append-only: after
// creation nothing changes except SyncStatus transitions.
type QueryHistory struct {
	ID         string
	SQLText    string
	ServerID   string
	ExecutedAt time.Time

	// Duration is how long the execution took.
	Duration time.Duration

	// RowCount is the number of rows returned, when known.
	RowCount *int64

	// Status is the execution outcome as reported by the proxy
	// (e.g. "success", "failed", "denied").
	Status string

	// ErrorMessage carries the failure detail, when any.
	ErrorMessage string

	UserID     string
	SyncStatus SyncStatus
}
