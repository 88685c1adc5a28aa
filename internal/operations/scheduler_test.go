package operations

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/shared/testutil"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every tuesday", &mockRunner{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	s, err := NewScheduler("0 2 * * *", &mockRunner{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestScheduler_RunOnce_SwallowsErrors(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, TriggerScheduled).Return(nil, stderrors.New("input missing")).Once()
	runner.On("Run", mock.Anything, TriggerScheduled).Return(&RunResult{
		RunID:   "r2",
		Publish: &exporter.PublishResult{UploadError: "denied"},
	}, nil).Once()

	s, err := NewScheduler("@hourly", runner, logger)
	require.NoError(t, err)

	s.RunOnce(context.Background(), TriggerScheduled)
	s.RunOnce(context.Background(), TriggerScheduled)

	runner.AssertExpectations(t)
	assert.True(t, logs.ContainsMessage("Scheduled run failed, waiting for next tick"))
	assert.True(t, logs.ContainsMessage("Scheduled run completed without upload"))
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var calls atomic.Int32
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, TriggerScheduled).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(nil, stderrors.New("boom"))

	s, err := NewScheduler("@every 1s", runner, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Error(t, s.Start(context.Background()), "double start is rejected")

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond, "a failed run must not stop the schedule")
}

func TestScheduler_StopCancelsRuns(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	started := make(chan struct{}, 1)
	var cancelled atomic.Bool

	runner := &mockRunner{}
	runner.On("Run", mock.Anything, TriggerScheduled).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
	}).Return(nil, context.Canceled)

	s, err := NewScheduler("@every 1s", runner, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled run did not start")
	}

	s.Stop()
	assert.True(t, cancelled.Load(), "Stop waits for the in-flight run to observe cancellation")
	s.Stop()
}
