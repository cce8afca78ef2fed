package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, time.Hour, cfg.Reconcile.MinInterval)
	assert.Equal(t, 24*time.Hour, cfg.Club.TTL)
	assert.Equal(t, 3*time.Second, cfg.Club.WaitCeiling)
	assert.Equal(t, "bolt", cfg.Cache.Tier)
	assert.Equal(t, "127.0.0.1:7878", cfg.Status.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROSTERLINK_BACKEND_URL", "https://api.example.com")
	t.Setenv("ROSTERLINK_RECONCILE_MIN_INTERVAL", "30m")
	t.Setenv("ROSTERLINK_STATUS_ADMIN_TOKEN", "s3cret")
	t.Setenv("ROSTERLINK_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Reconcile.MinInterval)
	assert.Equal(t, "s3cret", cfg.Status.AdminToken)

	level, err := ParseLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestValidate(t *testing.T) {
	t.Run("redis tier requires a url", func(t *testing.T) {
		t.Setenv("ROSTERLINK_CACHE_TIER", "redis")
		_, err := Load()
		assert.ErrorContains(t, err, "redis url is required")
	})

	t.Run("relative backend url is rejected", func(t *testing.T) {
		t.Setenv("ROSTERLINK_BACKEND_URL", "/api")
		_, err := Load()
		assert.ErrorContains(t, err, "not absolute")
	})

	t.Run("unknown log level is rejected", func(t *testing.T) {
		t.Setenv("ROSTERLINK_LOG_LEVEL", "loud")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid log level")
	})
}
