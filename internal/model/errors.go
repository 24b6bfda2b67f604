package model

import (
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

type PreconditionErrorCause string

const (
	ErrCauseNilNode        PreconditionErrorCause = "nil node"
	ErrCauseMissingFeature PreconditionErrorCause = "missing feature"
	ErrCauseInvalidFeature PreconditionErrorCause = "invalid feature"
)

// PreconditionError reports a content node that violates the extraction contract.
// It is always fatal: it points at a bug upstream, not at a transient condition.
type PreconditionError struct {
	Message   string
	Retryable bool
	Cause     PreconditionErrorCause
	NodeID    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violation: %s: %s", e.Cause, e.Message)
}

func (e *PreconditionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// MapPreconditionErrorToMetadataCause maps model-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func MapPreconditionErrorToMetadataCause(err *PreconditionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNilNode, ErrCauseMissingFeature, ErrCauseInvalidFeature:
		return metadata.CausePreconditionViolation
	default:
		return metadata.CauseUnknown
	}
}
