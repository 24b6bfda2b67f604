package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseNotFound              = "not found"
	ErrCausePermissionDenied      = "permission denied"
	ErrCauseNotRegularFile        = "not a regular file"
	ErrCauseReadFailure           = "read failure"
	ErrCauseTooLarge              = "document too large"
	ErrCauseNetworkFailure        = "network issues"
	ErrCauseContentTypeInvalid    = "non-HTML content"
	ErrCauseRedirectLimitExceeded = "reached redirect limit"
	ErrCauseRequestClientError    = "4xx"
	ErrCauseRequestTooMany        = "too many requests"
	ErrCauseRequest5xx            = "5xx"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseContentTypeInvalid:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseReadFailure
	}
}
