package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Lease.TTL)
	assert.Equal(t, 100, cfg.Fetchers.Calls.FetchLimit)
	assert.Equal(t, 3*time.Second, cfg.Fetchers.Calls.PollInterval)
	assert.Equal(t, 1000, cfg.Producers.BatchSize)
	assert.False(t, cfg.Producers.PruneUploaded)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CALLS_SOURCE_URL", "http://calls.internal:8000/calls")
	t.Setenv("CALLS_FETCH_LIMIT", "250")
	t.Setenv("PRODUCER_POLL_INTERVAL", "10s")
	t.Setenv("PRODUCER_PRUNE_UPLOADED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://calls.internal:8000/calls", cfg.Fetchers.Calls.Endpoint)
	assert.Equal(t, 250, cfg.Fetchers.Calls.FetchLimit)
	assert.Equal(t, 10*time.Second, cfg.Producers.PollInterval)
	assert.True(t, cfg.Producers.PruneUploaded)
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Server.Port = 0
	err = ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
}

func TestValidateConfigRejectsBadEndpoint(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Fetchers.Operators.Endpoint = "not-a-url"
	err = ValidateConfig(cfg)
	require.Error(t, err)
}

func TestGetEnvHelpersFallBackOnUnparsableValues(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	t.Setenv("SOME_DURATION", "soon")

	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
}
