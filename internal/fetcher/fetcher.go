package fetcher

import (
	"context"

	"github.com/rohmanhakim/record-finder/pkg/failure"
)

type Fetcher interface {
	Fetch(ctx context.Context, source string) (FetchResult, failure.ClassifiedError)
}
