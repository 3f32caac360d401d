package models

import (
	"encoding/json"
	"time"
)

// ServerCache is a locally cached copy of a server's connection descriptor
// and catalog metadata. It is a cache, not a source of truth: rows are
// overwritten on every successful fetch and expire after the configured TTL.
type ServerCache struct {
	// ID is the server id assigned by the backend.
	ID string

	Name   string
	Host   string
	Port   int
	Engine string

	// CachedAt is when the metadata was fetched. Rows older than the TTL are
	// treated as absent on read and removed by the expiry sweeper.
	CachedAt time.Time

	// Metadata is the optional table/column catalog blob.
	Metadata json.RawMessage
}

// ExpiredAt reports whether the cache row is stale relative to the cutoff.
func (s *ServerCache) ExpiredAt(cutoff time.Time) bool {
	return s.CachedAt.Before(cutoff)
}
