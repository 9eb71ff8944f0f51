package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setGatewayEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWAY_URL", "http://gateway.local:8080")
	t.Setenv("GATEWAY_USERNAME", "sms")
	t.Setenv("GATEWAY_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setGatewayEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "file:sms-platform.db?cache=shared&mode=rwc", cfg.Store.DSN)
	assert.Equal(t, "http://gateway.local:8080", cfg.Gateway.URL)
	assert.Equal(t, "sms", cfg.Gateway.Username)
	assert.Equal(t, "secret", cfg.Gateway.Password)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "server.log", cfg.Logging.Path)
}

func TestLoadMissingGatewayCredentials(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "missing url", unset: "GATEWAY_URL"},
		{name: "missing username", unset: "GATEWAY_USERNAME"},
		{name: "missing password", unset: "GATEWAY_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setGatewayEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoadRedisDriver(t *testing.T) {
	setGatewayEnv(t)
	t.Setenv("STORE_DRIVER", "redis")

	t.Run("requires REDIS_ADDR", func(t *testing.T) {
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("accepts address and db", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("REDIS_DB", "2")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverRedis, cfg.Store.Driver)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 2, cfg.Redis.DB)
	})
}

func TestLoadInvalidValues(t *testing.T) {
	setGatewayEnv(t)

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "not-a-number")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongodb")
		_, err := Load()
		assert.Error(t, err)
	})
}
