package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointAddr)
	assert.Equal(t, "offline.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
}

func TestParseJson_OverlaysOnlyProvidedFields(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"server_endpoint_addr": "https://console.example.com",
		"sync_interval": "90s"
	}`), 0o600))

	origArgs := os.Args
	os.Args = []string{"test", "-c", file}
	t.Cleanup(func() { os.Args = origArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "https://console.example.com", cfg.ServerEndpointAddr)
	assert.Equal(t, 90*time.Second, cfg.SyncInterval)
	// untouched fields keep their defaults
	assert.Equal(t, "offline.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
}

func TestParseFlags_OverridesDefaults(t *testing.T) {
	origArgs := os.Args
	os.Args = []string{"test", "-a", "https://api.example.com", "-f", "cache.db", "-i", "3", "-s", "60"}
	t.Cleanup(func() { os.Args = origArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "https://api.example.com", cfg.ServerEndpointAddr)
	assert.Equal(t, "cache.db", cfg.DatabasePath)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
}
