package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nurture")
	t.Setenv("PERENUAL_API_KEY", "per-key")
	t.Setenv("PLANTNET_API_KEY", "pn-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadOTLPEndpoint(t *testing.T) {
	setRequired(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PERENUAL_API_KEY", "")
	t.Setenv("PLANTNET_API_KEY", "pn-key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "PERENUAL_API_KEY")
}
