package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symrange/symrange/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 64, cfg.Registry.ShardCount)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER__PORT", "9090")
	t.Setenv("APP_REGISTRY__SHARD_COUNT", "16")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Registry.ShardCount)
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	t.Setenv("APP_LOG__LEVEL", "verbose")

	_, err := config.Load("")
	require.Error(t, err)
}

func TestValidate_RejectsBadPort(t *testing.T) {
	t.Setenv("APP_SERVER__PORT", "0")

	_, err := config.Load("")
	require.Error(t, err)
}
