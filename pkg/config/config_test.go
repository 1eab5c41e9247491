package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GROCERDASH_DB_DSN", "postgres://localhost/grocerdash")
	t.Setenv("GROCERDASH_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GROCERDASH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 5*time.Minute, cfg.Dispatch.StaleAssignedAfter)
	assert.Equal(t, time.Minute, cfg.Dispatch.SweepInterval)
	assert.Equal(t, "grocerdash", cfg.JWT.Issuer)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFailsWithoutDSN(t *testing.T) {
	t.Setenv("GROCERDASH_DB_DSN", "")
	t.Setenv("GROCERDASH_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GROCERDASH_JWT_SECRET", "test-secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadFailsWithEmptyJWTSecret(t *testing.T) {
	t.Setenv("GROCERDASH_DB_DSN", "postgres://localhost/grocerdash")
	t.Setenv("GROCERDASH_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GROCERDASH_JWT_SECRET", "   ")

	_, err := Load()
	require.Error(t, err)
}
