package operations

import (
	"context"
	stderrors "errors"
	"fmt"
)

// StageError reports which stage aborted a run
type StageError struct {
	Stage StageID
	Cause error
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e == nil {
		return "unknown stage error"
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// FailedStage returns the stage that produced err, if any
func FailedStage(err error) (StageID, bool) {
	var stageErr *StageError
	if stderrors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}

// IsCancellation reports whether err stems from a cancelled or expired context
func IsCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
