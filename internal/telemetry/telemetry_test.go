package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/appleid-token/internal/config"
	"github.com/smallbiznis/appleid-token/internal/telemetry"
)

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	provider, err := telemetry.New(context.Background(), config.Config{ServiceName: "appleid-token"}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNilProvider(t *testing.T) {
	var provider *telemetry.Provider
	require.False(t, provider.Enabled())
	require.NotNil(t, provider.Tracer())
	require.NoError(t, provider.Shutdown(context.Background()))
}
