package telemetry_test

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWithProfilingLabels(t *testing.T) {
	labels := telemetry.OperationLabels("complete_order", map[string]string{
		telemetry.ProfilingLabelStage: "  plan  ",
		"empty":                       "",
		"long":                        strings.Repeat("x", 100),
	})

	var seen map[string]string
	telemetry.WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
		seen = map[string]string{}
		pprof.ForLabels(ctx, func(k, v string) bool {
			seen[k] = v
			return true
		})
	})

	assert.Equal(t, "complete_order", seen[telemetry.ProfilingLabelOperation])
	assert.Equal(t, "plan", seen[telemetry.ProfilingLabelStage])
	assert.NotContains(t, seen, "empty")
	assert.Len(t, seen["long"], 64)
}

func TestWithProfilingLabels_EmptyRunsDirectly(t *testing.T) {
	called := false
	telemetry.WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}

func TestHTTPLabels(t *testing.T) {
	assert.Equal(t, map[string]string{"method": "GET", "route": "/api/v1/invoices"},
		telemetry.HTTPLabels("GET", "/api/v1/invoices"))
}

func TestNewProfiler(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsRunning())
	assert.NoError(t, p.Stop())

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{ServiceName: "commission-engine", LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}
