package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/infrastructure"
)

const (
	TracerName = "salespulse.pipeline"
)

// PipelineTracer provides OpenTelemetry instrumentation for pipeline runs
type PipelineTracer struct {
	tracer          trace.Tracer
	businessMetrics *infrastructure.BusinessMetrics
}

// NewPipelineTracer creates a pipeline tracer. Nil providers fall back to the
// global tracer and no-op metrics.
func NewPipelineTracer(providers *infrastructure.OTelProviders) (*PipelineTracer, error) {
	var meter metric.Meter
	if providers != nil {
		meter = providers.Meter
	}
	businessMetrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return NewPipelineTracerWithMetrics(businessMetrics), nil
}

// NewPipelineTracerWithMetrics creates a pipeline tracer sharing existing metrics
func NewPipelineTracerWithMetrics(businessMetrics *infrastructure.BusinessMetrics) *PipelineTracer {
	return &PipelineTracer{
		tracer:          otel.Tracer(TracerName),
		businessMetrics: businessMetrics,
	}
}

// TraceRun creates a span for the entire pipeline run
func (pt *PipelineTracer) TraceRun(ctx context.Context, runID, trigger string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("pipeline.trigger", trigger),
		),
	)
}

// TraceStage creates a span for one stage
func (pt *PipelineTracer) TraceStage(ctx context.Context, runID string, stage StageID) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("pipeline.stage.%s", stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("stage.id", string(stage)),
		),
	)
}

// RecordStageCompletion records stage outcome on the span and the duration histogram
func (pt *PipelineTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stage StageID, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("stage.duration_seconds", duration.Seconds()))
	infrastructure.RecordPipelineStage(ctx, pt.businessMetrics, string(stage), duration, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err, trace.WithAttributes(
			attribute.String("stage.id", string(stage)),
		))
		return
	}
	span.SetStatus(codes.Ok, "stage completed")
}

// RecordLoadStats records the loader's row counters
func (pt *PipelineTracer) RecordLoadStats(ctx context.Context, stats dataprocessing.LoadStats) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("load.format", stats.Format),
		attribute.Int("load.rows_read", stats.RowsRead),
		attribute.Int("load.rows_kept", stats.RowsKept),
		attribute.Int("load.rows_dropped", stats.Dropped()),
		attribute.Int("load.invalid_dates", stats.InvalidDates),
	)
	if pt.businessMetrics == nil {
		return
	}
	pt.businessMetrics.PipelineRowsLoaded.Add(ctx, int64(stats.RowsKept))
	if dropped := stats.Dropped(); dropped > 0 {
		pt.businessMetrics.PipelineRowsDropped.Add(ctx, int64(dropped))
	}
}

// RecordUploadFailure counts a failed best-effort upload
func (pt *PipelineTracer) RecordUploadFailure(ctx context.Context, reason string) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("upload.failed", trace.WithAttributes(attribute.String("error", reason)))
	if pt.businessMetrics != nil {
		pt.businessMetrics.UploadFailures.Add(ctx, 1)
	}
}

// RecordRunCompletion records the run outcome on the span and the run metrics
func (pt *PipelineTracer) RecordRunCompletion(ctx context.Context, span trace.Span, trigger string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("pipeline.duration_seconds", duration.Seconds()))
	infrastructure.RecordPipelineRun(ctx, pt.businessMetrics, trigger, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "pipeline completed")
}
