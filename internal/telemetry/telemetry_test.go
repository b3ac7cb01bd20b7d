package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally-dashboard/internal/config"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(context.Background(), config.TelemetryConfig{ServiceName: "tally-dashboard"}, zerolog.Nop())
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// the gRPC exporter connects lazily, so no collector is needed
	shutdown := Setup(context.Background(), config.TelemetryConfig{
		ServiceName:  "tally-dashboard",
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
	}, zerolog.Nop())
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// shutdown with a cancelled context may report the unsent batch; it must not hang
	_ = shutdown(ctx)
}
