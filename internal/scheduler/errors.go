package scheduler

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

var (
	ErrNoMatch         = errors.New("selector matches no content")
	ErrNoRecordsParent = errors.New("no element to cluster")
	ErrUnknownMode     = errors.New("unknown cluster mode")
)

type SchedulerError struct {
	Message   string
	Retryable bool
	Cause     error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler error: %v: %s", e.Cause, e.Message)
}

func (e *SchedulerError) Unwrap() error {
	return e.Cause
}

func (e *SchedulerError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapSchedulerErrorToMetadataCause maps scheduler-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSchedulerErrorToMetadataCause(err *SchedulerError) metadata.ErrorCause {
	switch {
	case errors.Is(err.Cause, ErrNoMatch), errors.Is(err.Cause, ErrNoRecordsParent):
		return metadata.CauseContentInvalid
	case errors.Is(err.Cause, ErrUnknownMode):
		return metadata.CausePreconditionViolation
	default:
		return metadata.CauseUnknown
	}
}
