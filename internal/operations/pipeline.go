package operations

import (
	"context"
	"log/slog"
	"time"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// Run triggers
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// PipelineConfig holds the inputs of a run
type PipelineConfig struct {
	InputPath string
}

// PipelineDeps are the collaborators of the write path. Validator and Tracer are optional.
type PipelineDeps struct {
	Validator  InputValidator
	Loader     TableLoader
	Aggregator KPIAggregator
	Publisher  DocumentPublisher
	Tracer     *PipelineTracer
}

// RunResult summarises one pipeline run
type RunResult struct {
	RunID      string                   `json:"run_id"`
	Trigger    string                   `json:"trigger"`
	StartedAt  time.Time                `json:"started_at"`
	Duration   time.Duration            `json:"duration"`
	Stages     []*StageState            `json:"stages"`
	LoadStats  dataprocessing.LoadStats `json:"load_stats"`
	Document   *domain.KPIDocument      `json:"document,omitempty"`
	Publish    *exporter.PublishResult  `json:"publish,omitempty"`
	FailedStep StageID                  `json:"failed_stage,omitempty"`
}

// Stage returns the state of stage id, or nil if it never started
func (r *RunResult) Stage(id StageID) *StageState {
	for _, s := range r.Stages {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Pipeline runs Load, Aggregate and Publish over the configured input
type Pipeline struct {
	cfg    PipelineConfig
	deps   PipelineDeps
	logger *slog.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(cfg PipelineConfig, deps PipelineDeps, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = NewPipelineTracerWithMetrics(nil)
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With(slog.String("component", "pipeline")),
	}
}

// Run executes one run. The returned error is non-nil only for fatal
// failures: validation, loading, aggregation or the local write. A failed
// upload is reported in the result and logged.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*RunResult, error) {
	if trigger == "" {
		trigger = TriggerManual
	}
	ctx, runID := infrastructure.NewRunContext(ctx)
	ctx, span := p.deps.Tracer.TraceRun(ctx, runID, trigger)
	defer span.End()

	result := &RunResult{RunID: runID, Trigger: trigger, StartedAt: time.Now().UTC()}

	p.logger.InfoContext(ctx, "Pipeline run started",
		slog.String("trigger", trigger),
		slog.String("input", p.cfg.InputPath))

	err := p.execute(ctx, runID, result)
	result.Duration = time.Since(result.StartedAt)
	p.deps.Tracer.RecordRunCompletion(ctx, span, trigger, result.Duration, err)

	if err != nil {
		if stage, ok := FailedStage(err); ok {
			result.FailedStep = stage
		}
		p.logger.ErrorContext(ctx, "Pipeline run failed",
			slog.String("failed_stage", string(result.FailedStep)),
			slog.Duration("duration", result.Duration),
			slog.String("error", err.Error()))
		return result, err
	}

	attrs := []any{
		slog.Duration("duration", result.Duration),
		slog.Int("rows_kept", result.LoadStats.RowsKept),
		slog.Int("rows_dropped", result.LoadStats.Dropped()),
	}
	if result.Publish != nil {
		attrs = append(attrs,
			slog.String("output", result.Publish.LocalPath),
			slog.Bool("uploaded", result.Publish.Uploaded))
	}
	p.logger.InfoContext(ctx, "Pipeline run completed", attrs...)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, runID string, result *RunResult) error {
	if p.deps.Validator != nil {
		if err := p.stage(ctx, runID, result, StageValidate, func(ctx context.Context, _ *StageState) error {
			return p.deps.Validator.ValidateInputFile(p.cfg.InputPath)
		}); err != nil {
			return err
		}
	} else {
		p.skip(result, StageValidate, "no validator configured")
	}

	var table *domain.SalesTable
	if err := p.stage(ctx, runID, result, StageLoad, func(ctx context.Context, state *StageState) error {
		t, stats, err := p.deps.Loader.Load(ctx, p.cfg.InputPath)
		result.LoadStats = stats
		if err != nil {
			return err
		}
		table = t
		state.SetMetadata("rows_kept", stats.RowsKept)
		state.SetMetadata("rows_dropped", stats.Dropped())
		p.deps.Tracer.RecordLoadStats(ctx, stats)
		return nil
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, runID, result, StageAggregate, func(ctx context.Context, state *StageState) error {
		doc, err := p.deps.Aggregator.Aggregate(ctx, table)
		if err != nil {
			return err
		}
		result.Document = &doc
		state.SetMetadata("total_orders", doc.TotalOrders)
		return nil
	}); err != nil {
		return err
	}

	return p.stage(ctx, runID, result, StagePublish, func(ctx context.Context, state *StageState) error {
		pub, err := p.deps.Publisher.Publish(ctx, *result.Document)
		if err != nil {
			return err
		}
		result.Publish = &pub
		state.SetMetadata("uploaded", pub.Uploaded)
		if pub.UploadSkippedReason != "" {
			state.SetMessage(pub.UploadSkippedReason)
		}
		if pub.UploadError != "" {
			state.SetMessage("upload failed: " + pub.UploadError)
			p.deps.Tracer.RecordUploadFailure(ctx, pub.UploadError)
		}
		return nil
	})
}

// stage runs fn inside its own span and records its state on result.
func (p *Pipeline) stage(ctx context.Context, runID string, result *RunResult, id StageID,
	fn func(ctx context.Context, state *StageState) error) error {
	state := NewStageState(id)
	result.Stages = append(result.Stages, state)

	if err := ctx.Err(); err != nil {
		state.Fail(err)
		return &StageError{Stage: id, Cause: err}
	}

	stageCtx, span := p.deps.Tracer.TraceStage(ctx, runID, id)
	defer span.End()

	state.Start()
	err := fn(stageCtx, state)
	duration := state.Duration()
	p.deps.Tracer.RecordStageCompletion(stageCtx, span, id, duration, err)

	if err != nil {
		state.Fail(err)
		return &StageError{Stage: id, Cause: err}
	}
	state.Complete()

	p.logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", string(id)),
		slog.Duration("duration", duration))
	return nil
}

func (p *Pipeline) skip(result *RunResult, id StageID, reason string) {
	state := NewStageState(id)
	state.Skip(reason)
	result.Stages = append(result.Stages, state)
}
