package region

import (
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

type DegenerateInputErrorCause string

const (
	ErrCauseEmptyChildren DegenerateInputErrorCause = "empty child list"
	ErrCauseNilSubtree    DegenerateInputErrorCause = "nil subtree"
)

// DegenerateInputError reports subtree clustering input that carries nothing to compare.
type DegenerateInputError struct {
	Message   string
	Retryable bool
	Cause     DegenerateInputErrorCause
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("region error: %s: %s", e.Cause, e.Message)
}

func (e *DegenerateInputError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapDegenerateInputErrorToMetadataCause maps region-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapDegenerateInputErrorToMetadataCause(err *DegenerateInputError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseEmptyChildren, ErrCauseNilSubtree:
		return metadata.CauseDegenerateInput
	default:
		return metadata.CauseUnknown
	}
}
