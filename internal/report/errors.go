package report

import (
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

type ReportErrorCause string

const (
	ErrCauseConversionFailure ReportErrorCause = "conversion failed"
	ErrCauseUnsupportedFormat ReportErrorCause = "unsupported format"
	ErrCauseEncodingFailure   ReportErrorCause = "encoding failed"
)

type ReportError struct {
	Message   string
	Retryable bool
	Cause     ReportErrorCause
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report error: %s: %s", e.Cause, e.Message)
}

func (e *ReportError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapReportErrorToMetadataCause maps report-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapReportErrorToMetadataCause(err *ReportError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseConversionFailure:
		return metadata.CauseContentInvalid
	case ErrCauseUnsupportedFormat, ErrCauseEncodingFailure:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
