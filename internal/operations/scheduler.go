package operations

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"salespulse/internal/errors"
)

// Scheduler re-runs the pipeline on a cron schedule. A failed run is logged
// and the schedule keeps going. Overlapping runs are skipped.
type Scheduler struct {
	spec   string
	runner Runner
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc
}

// NewScheduler validates spec (standard five-field cron or a descriptor such as @hourly)
func NewScheduler(spec string, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.NewConfigError("invalid cron schedule", err).WithContext("schedule", spec)
	}
	return &Scheduler{
		spec:   spec,
		runner: runner,
		logger: logger.With(slog.String("component", "scheduler")),
	}, nil
}

// Start registers the job and starts the cron loop. Runs receive a context
// derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.NewAppValidationError("scheduler already started", nil)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cronLogger := cronSlogAdapter{logger: s.logger}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	id, err := c.AddFunc(s.spec, func() { s.RunOnce(runCtx, TriggerScheduled) })
	if err != nil {
		cancel()
		return errors.NewConfigError("register scheduled run", err).WithContext("schedule", s.spec)
	}

	s.cron, s.entryID, s.cancel = c, id, cancel
	c.Start()

	s.logger.InfoContext(ctx, "Scheduler started",
		slog.String("schedule", s.spec),
		slog.Time("next_run", c.Entry(id).Next))
	return nil
}

// RunOnce executes one run and logs its outcome; errors never propagate.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) {
	result, err := s.runner.Run(ctx, trigger)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled run failed, waiting for next tick",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		return
	}
	if result != nil && result.Publish != nil && result.Publish.UploadError != "" {
		s.logger.WarnContext(ctx, "Scheduled run completed without upload",
			slog.String("run_id", result.RunID),
			slog.String("upload_error", result.Publish.UploadError))
	}
}

// Stop stops the cron loop, cancels in-flight runs and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// cronSlogAdapter satisfies cron.Logger with slog
type cronSlogAdapter struct {
	logger *slog.Logger
}

func (a cronSlogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronSlogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
