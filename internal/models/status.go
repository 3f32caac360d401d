// Package models defines the record types persisted by the offline cache
// and exchanged with the synchronization engine.
package models

// SyncStatus tracks whether a locally persisted record has been acknowledged
// by the remote backend.
type SyncStatus string

const (
	// StatusSynced means the remote system has acknowledged the record.
	StatusSynced SyncStatus = "synced"
	// StatusPending means the record awaits reconciliation.
	StatusPending SyncStatus = "pending"
	// StatusError means the last reconciliation attempt failed.
	StatusError SyncStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s SyncStatus) Valid() bool {
	switch s {
	case StatusSynced, StatusPending, StatusError:
		return true
	}
	return false
}

// EntityType identifies which collection a sync-queue item targets.
type EntityType string

const (
	EntityQuery   EntityType = "query"
	EntityHistory EntityType = "history"
	EntityServer  EntityType = "server"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityQuery, EntityHistory, EntityServer:
		return true
	}
	return false
}

// Action is the mutation kind recorded in a sync-queue item.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}
