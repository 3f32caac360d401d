// Package common defines shared sentinel errors used across the offline
// cache and synchronization layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable signals that the persistent store could not be
	// opened and the engine is running in degraded (in-memory) mode.
	ErrStorageUnavailable = errors.New("persistent storage unavailable")

	// ErrOfflineRejected is returned when a caller explicitly requests a
	// synchronization pass while the engine is offline. Informational, not
	// fatal.
	ErrOfflineRejected = errors.New("sync rejected: offline")

	// ErrSyncInProgress is returned when a manual sync is requested while a
	// pass is already running.
	ErrSyncInProgress = errors.New("sync already in progress")
)
