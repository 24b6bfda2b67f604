package failure

import "errors"

type Severity int

// caller control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is returned by every package boundary.
// Callers decide whether to skip a region or abort the document from Severity alone.
type ClassifiedError interface {
	error
	Severity() Severity
}

// IsFatal reports whether err carries a fatal classification anywhere in its chain.
// Unclassified errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var classified ClassifiedError
	if errors.As(err, &classified) {
		return classified.Severity() == SeverityFatal
	}
	return true
}
