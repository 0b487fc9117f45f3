package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, "nurture-api", "test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitIgnoresProcessEnvironment(t *testing.T) {
	// The endpoint comes in through config.Load; a stray env var must not
	// resurrect an exporter when the caller passed none.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector.invalid:4318")

	shutdown, err := Init(context.Background(), nil, "nurture-api", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
