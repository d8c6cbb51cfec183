package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/config"
)

// stashGlobals restores the process-wide OTel providers after the test, so
// Init calls here cannot bleed into other packages' tests.
func stashGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func shutdownSoon(t *testing.T, p *Providers) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// No collector listens in tests; only the flush attempt matters.
		_ = p.Shutdown(ctx)
	})
}

func TestInit_DisabledYieldsInertProviders(t *testing.T) {
	stashGlobals(t)

	p, err := Init(config.TelemetryConfig{Enabled: false}, "1.0.0", zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_EnabledInstallsGlobalProviders(t *testing.T) {
	stashGlobals(t)

	p, err := Init(config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "careerflow-test",
		SampleRate:   0.5,
	}, "1.2.3", zap.NewNop())
	require.NoError(t, err)
	shutdownSoon(t, p)

	assert.True(t, p.Enabled())
	_, tracesInstalled := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, metricsInstalled := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tracesInstalled, "global tracer provider must be the SDK implementation")
	assert.True(t, metricsInstalled, "global meter provider must be the SDK implementation")
}

func TestInit_DefaultsEmptyEndpointAndVersion(t *testing.T) {
	stashGlobals(t)

	// Endpoint and version fall back to defaults instead of failing init.
	p, err := Init(config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "careerflow-test",
		SampleRate:  1.0,
	}, "", zap.NewNop())
	require.NoError(t, err)
	shutdownSoon(t, p)

	assert.True(t, p.Enabled())
}

func TestProviders_ShutdownNilReceiver(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.False(t, p.Enabled())
}

func TestProviders_ShutdownDoesNotPanicWithoutCollector(t *testing.T) {
	stashGlobals(t)

	p, err := Init(config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "careerflow-shutdown-test",
		SampleRate:   1.0,
	}, "1.0.0", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NotPanics(t, func() {
		_ = p.Shutdown(ctx)
	})
}
