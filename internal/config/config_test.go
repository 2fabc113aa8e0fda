package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Success: Env vars over defaults", func(t *testing.T) {
		t.Setenv("STATS_GATEWAY_BASE_URL", "https://api.habitloop.dev")
		t.Setenv("STATS_GATEWAY_SESSION_TOKEN", "jwt-token")
		t.Setenv("STATS_STORE_PATH", "/tmp/engine.db")
		t.Setenv("STATS_REDIS_MIRROR", "true")
		t.Setenv("STATS_SYNC_PROBE_INTERVAL", "45s")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "https://api.habitloop.dev", cfg.Gateway.BaseURL)
		assert.Equal(t, "jwt-token", cfg.Gateway.SessionToken)
		assert.Equal(t, "/tmp/engine.db", cfg.Store.Path)
		assert.True(t, cfg.Redis.Mirror)
		assert.Equal(t, 45*time.Second, cfg.Sync.ProbeInterval)
	})

	t.Run("Success: Defaults fill everything but the gateway URL", func(t *testing.T) {
		t.Setenv("STATS_GATEWAY_BASE_URL", "https://api.habitloop.dev")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "development", cfg.Env)
		assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
		assert.Equal(t, "stats-engine.db", cfg.Store.Path)
		assert.True(t, cfg.Store.Cache)
		assert.False(t, cfg.Redis.Mirror)
		assert.Equal(t, ":8080", cfg.Bridge.Addr)
		assert.Equal(t, 60, cfg.Bridge.RateLimit)
		assert.Equal(t, time.Minute, cfg.Bridge.RateWindow)
		assert.Equal(t, 30*time.Second, cfg.Sync.ProbeInterval)
		assert.Equal(t, "daily", cfg.Sync.DefaultScope)
	})

	t.Run("Success: YAML file with env override", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "config.yaml")
		yaml := []byte(`
env: production
gateway:
  base_url: https://file.habitloop.dev
store:
  path: /var/lib/engine.db
sync:
  default_scope: weekly
`)
		require.NoError(t, os.WriteFile(file, yaml, 0o600))
		t.Setenv("STATS_STORE_PATH", "/env/wins.db")

		cfg, err := Load(file)

		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Env)
		assert.Equal(t, "https://file.habitloop.dev", cfg.Gateway.BaseURL)
		assert.Equal(t, "/env/wins.db", cfg.Store.Path)
		assert.Equal(t, "weekly", cfg.Sync.DefaultScope)
	})

	t.Run("Fail: Missing gateway URL is rejected", func(t *testing.T) {
		_, err := Load("")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "STATS_GATEWAY_BASE_URL")
	})

	t.Run("Fail: Explicit config file must exist", func(t *testing.T) {
		t.Setenv("STATS_GATEWAY_BASE_URL", "https://api.habitloop.dev")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
	})

	t.Run("Fail: Unknown default scope is rejected", func(t *testing.T) {
		t.Setenv("STATS_GATEWAY_BASE_URL", "https://api.habitloop.dev")
		t.Setenv("STATS_SYNC_DEFAULT_SCOPE", "hourly")

		_, err := Load("")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid scope")
	})

	t.Run("Fail: Zero probe interval is rejected", func(t *testing.T) {
		t.Setenv("STATS_GATEWAY_BASE_URL", "https://api.habitloop.dev")
		t.Setenv("STATS_SYNC_PROBE_INTERVAL", "0s")

		_, err := Load("")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "probe_interval")
	})
}
