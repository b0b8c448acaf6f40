package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresBothSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "access-secret")
	_, err = load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("QUEUE_DRIVER", "memory")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "goal_recompute_queue", cfg.RecomputeQueueName)
}

func TestYAMLOverlayLosesToEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skillwise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("API_PORT: \"9090\"\nJWT_ACCESS_TTL: 5m\nLOG_MODE: development\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("LOG_MODE", "production")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, "production", cfg.LogMode)
	assert.Contains(t, cfg.Sources, path)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		JWTKey:                  []byte("a"),
		JWTRefreshKey:           []byte("b"),
		JWTAccessTTL:            time.Minute,
		JWTRefreshTTL:           time.Hour,
		StoreDriver:             "mongo",
		QueueDriver:             QueueDriverMemory,
		RecomputeLockTTLSeconds: 1,
	}
	assert.Error(t, cfg.Validate())

	cfg.StoreDriver = StoreDriverMemory
	assert.NoError(t, cfg.Validate())

	cfg.JWTRefreshKey = []byte("a")
	assert.Error(t, cfg.Validate())
}
