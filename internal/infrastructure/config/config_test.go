package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL": "postgres://localhost/etiaam",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 120*time.Minute, cfg.JWTTTL)
	assert.True(t, cfg.UsingDevSecret())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RefusesDevSecretInProduction(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL": "postgres://localhost/etiaam",
		"ENV":          "production",
	}))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET must be set in production")

	cfg.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RequiresDatabaseURL(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_TTL": "30m",
	}))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL is required")
}

func TestTrustedProxyNets(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL":    "postgres://localhost/etiaam",
		"TRUSTED_PROXIES": "10.0.0.0/8,192.0.2.10",
	}))
	require.NoError(t, err)

	nets, err := cfg.TrustedProxyNets()
	require.NoError(t, err)
	require.Len(t, nets, 2)
	assert.Equal(t, "10.0.0.0/8", nets[0].String())
	assert.Equal(t, "192.0.2.10/32", nets[1].String())
	assert.NoError(t, cfg.Validate())

	cfg.TrustedProxies = []string{"not-an-ip"}
	assert.ErrorContains(t, cfg.Validate(), "TRUSTED_PROXIES")
}
