package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMA_API_BASE_URL", "")
	t.Setenv("GEMA_SESSION_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, time.Duration(0), cfg.RequestTimeout)
	require.Equal(t, SessionBackendMemory, cfg.SessionBackend)
	require.Equal(t, "@every 30s", cfg.WatchSchedule)
	require.Equal(t, 10, cfg.MaxUploadMB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMA_API_BASE_URL", "https://school.example.com/api/")
	t.Setenv("GEMA_API_TIMEOUT", "15s")
	t.Setenv("GEMA_SESSION_BACKEND", "redis")
	t.Setenv("GEMA_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://school.example.com/api", cfg.BaseURL)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, SessionBackendRedis, cfg.SessionBackend)
}

func TestLoadRejectsRedisWithoutURL(t *testing.T) {
	t.Setenv("GEMA_SESSION_BACKEND", "redis")
	t.Setenv("GEMA_REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("GEMA_SESSION_BACKEND", "memory")
	t.Setenv("GEMA_API_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
