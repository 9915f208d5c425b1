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
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 60*time.Second, cfg.PongWait)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 20.0, cfg.Rate.PerSecond)
	assert.Equal(t, 40, cfg.Rate.Burst)
	assert.Equal(t, 5*time.Second, cfg.Relay.StoreTimeout)
	assert.Equal(t, 6, cfg.Relay.CodeLength)
	assert.Equal(t, 10, cfg.Relay.CodeAttempts)
	assert.Equal(t, "kick", cfg.Relay.Backpressure)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "relay.events", cfg.Events.Exchange)
	assert.Empty(t, cfg.Events.AMQPURL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `
mode: debug
port: 9090
store:
  driver: sqlite
  dsn: file:test.db
relay:
  backpressure: drop
  store_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("RELAY_PORT", "9191")
	t.Setenv("RELAY_STORE_DRIVER", "postgres")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "file:test.db", cfg.Store.DSN)
	assert.Equal(t, "drop", cfg.Relay.Backpressure)
	assert.Equal(t, 2*time.Second, cfg.Relay.StoreTimeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ping_period: 90s\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping_period")
}
