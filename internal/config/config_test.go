package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "NODE_ENV", "PORT", "TOKEN_TTL", "CURRENCY", "AUTH_RATE_LIMIT", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 20, cfg.AuthRateLimit)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_NodeEnvFallback(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "Production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "one day")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestRequire(t *testing.T) {
	cfg := &Config{JWTSecret: "s3cret"}

	assert.NoError(t, cfg.Require("JWT_SECRET_KEY"))
	err := cfg.Require("JWT_SECRET_KEY", "CRDB_DSN", "RABBIT_URL")
	assert.EqualError(t, err, "missing required settings: CRDB_DSN, RABBIT_URL")
}
