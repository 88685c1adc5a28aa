package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"salespulse/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantErr     bool
		wantTracing bool
		wantMetrics bool
	}{
		{
			name:        "prometheus metrics only",
			cfg:         config.TelemetryConfig{Environment: "test", TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1},
			wantMetrics: true,
		},
		{
			name:        "stdout tracing and prometheus",
			cfg:         config.TelemetryConfig{Environment: "test", TraceExporter: "stdout", MetricExporter: "prometheus", SampleRatio: 1},
			wantTracing: true,
			wantMetrics: true,
		},
		{
			name: "everything disabled",
			cfg:  config.TelemetryConfig{TraceExporter: "none", MetricExporter: "none"},
		},
		{
			name:    "unknown trace exporter",
			cfg:     config.TelemetryConfig{TraceExporter: "otlp", MetricExporter: "none"},
			wantErr: true,
		},
		{
			name:    "unknown metric exporter",
			cfg:     config.TelemetryConfig{TraceExporter: "none", MetricExporter: "statsd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, providers)

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, providers.Shutdown(ctx))
		})
	}
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1,
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	assert.Empty(t, TraceIDFromContext(context.Background()))

	// Recording on a live span must not panic, and is a no-op without one
	RecordError(ctx, errors.New("boom"))
	RecordError(context.Background(), errors.New("ignored"))
}

func TestBusinessMetrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)
	assert.NotNil(t, metrics.PipelineRunsTotal)
	assert.NotNil(t, metrics.PipelineStageDuration)
	assert.NotNil(t, metrics.PipelineRowsLoaded)
	assert.NotNil(t, metrics.PipelineRowsDropped)
	assert.NotNil(t, metrics.UploadFailures)
	assert.NotNil(t, metrics.DocumentReadsTotal)

	ctx := context.Background()
	RecordPipelineRun(ctx, metrics, "cli", time.Second, nil)
	RecordPipelineRun(ctx, metrics, "cron", time.Second, errors.New("failed"))
	RecordPipelineStage(ctx, metrics, "load", time.Millisecond, true)
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	metrics, err := CreateBusinessMetrics(nil)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	RecordPipelineRun(context.Background(), nil, "cli", time.Second, nil)
	RecordPipelineStage(context.Background(), nil, "load", time.Second, false)
}
