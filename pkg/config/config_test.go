package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("sync-service")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "shiftline_sync", cfg.Database.Database)
	assert.Equal(t, 5*time.Minute, cfg.Remote.PushInterval)
	assert.Equal(t, 10*time.Second, cfg.Remote.HTTPTimeout)
	assert.True(t, cfg.Remote.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Store.FallbackPollInterval)
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("SHIFTLINE_REMOTE_BASE_URL", "https://api.example.com")
	os.Setenv("SHIFTLINE_SERVER_PORT", "9999")
	defer os.Unsetenv("SHIFTLINE_REMOTE_BASE_URL")
	defer os.Unsetenv("SHIFTLINE_SERVER_PORT")

	cfg, err := Load("sync-service")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "secret",
		Database: "sync",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=secret dbname=sync sslmode=require",
		cfg.DSN(),
	)
}
