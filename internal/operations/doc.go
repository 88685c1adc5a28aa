// Package operations runs the KPI write path.
//
// Pipeline executes the stages validate, load, aggregate and publish in
// order. Each stage gets its own span and duration measurement, and its
// outcome is recorded as a StageState on the RunResult. Validation, loading,
// aggregation and the local write are fatal; an upload failure is reported on
// the result and the run still succeeds.
//
// Scheduler repeats runs on a cron schedule using robfig/cron. A failed run
// is logged and the next tick runs as usual.
//
// Example usage:
//
//	p := operations.NewPipeline(operations.PipelineConfig{InputPath: in}, operations.PipelineDeps{
//		Validator:  validation.NewFileValidator(logger),
//		Loader:     loader,
//		Aggregator: aggregator,
//		Publisher:  publisher,
//	}, logger)
//	result, err := p.Run(ctx, operations.TriggerManual)
package operations
