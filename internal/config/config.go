// Package config loads runtime settings for the offline cache daemon.
// Values are layered: struct defaults, then a JSON file (if given), then
// command-line flags. Later sources take precedence.
package config

import "time"

// Config holds runtime settings for the offline cache and sync engine.
//
// Units: intervals are time.Duration values (e.g. 30*time.Second).
type Config struct {
	// ServerEndpointAddr is the base URL of the backend sync API.
	ServerEndpointAddr string

	// APIToken is the opaque bearer token sent with every backend call.
	APIToken string

	// DatabasePath is the SQLite file holding the local cache.
	DatabasePath string

	// LogFile, when non-empty, switches logging from stderr to a rotated
	// file at this path.
	LogFile string

	// OnlineCheckInterval is how often the connectivity monitor probes the
	// backend.
	OnlineCheckInterval time.Duration

	// SyncInterval is the cadence of periodic sync passes and cache sweeps
	// while online.
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "offline.db"
	c.OnlineCheckInterval = 10 * time.Second
	c.SyncInterval = 5 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
