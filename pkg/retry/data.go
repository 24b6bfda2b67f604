package retry

import (
	"github.com/rohmanhakim/record-finder/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// They come from config; the handler itself knows no defaults.
type RetryParam struct {
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
}

func NewRetryParam(maxAttempts int, backoffParam timeutil.BackoffParam) RetryParam {
	return RetryParam{
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}
