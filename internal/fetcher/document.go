package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/retry"
)

/*
Responsibilities

- Load a document from a file, standard input or an http(s) URL
- Bound the size of what is read
- Retry remote requests that fail transiently
- Classify failures

Fetch Semantics

- Only successful HTML responses are returned for remote sources
- Local files are returned as-is; the extractor decides whether they are HTML
- Every load and every failure is recorded with metadata

The fetcher never parses content; it only returns bytes.
*/

// MaxRedirects bounds the redirect chain of a remote document.
const MaxRedirects = 10

var errTooManyRedirects = errors.New("redirect chain too long")

type DocumentFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	stdin        io.Reader
	fetchParam   FetchParam
	retryParam   retry.RetryParam
}

func NewDocumentFetcher(
	metadataSink metadata.MetadataSink,
	stdin io.Reader,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) DocumentFetcher {
	return DocumentFetcher{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			Timeout: fetchParam.timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		stdin:      stdin,
		fetchParam: fetchParam,
		retryParam: retryParam,
	}
}

// IsRemote reports whether source names an http or https document.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func (d *DocumentFetcher) Fetch(ctx context.Context, source string) (FetchResult, failure.ClassifiedError) {
	callerMethod := "DocumentFetcher.Fetch"
	startTime := time.Now()

	var result FetchResult
	var err failure.ClassifiedError
	switch {
	case source == "" || source == StdinArg:
		result, err = d.readStdin()
	case IsRemote(source):
		result, err = d.fetchRemote(ctx, source)
	default:
		result, err = d.readFile(source)
	}

	if err != nil {
		d.recordError(callerMethod, source, err)
		return FetchResult{}, err
	}

	d.metadataSink.RecordDocumentLoad(result.source, result.SizeByte(), time.Since(startTime))
	return result, nil
}

func (d *DocumentFetcher) recordError(callerMethod string, source string, err failure.ClassifiedError) {
	cause := metadata.CauseReadFailure
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		cause = mapFetchErrorToMetadataCause(fetchError)
	}
	d.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSource, source),
		},
	)
}

func (d *DocumentFetcher) readStdin() (FetchResult, failure.ClassifiedError) {
	if d.stdin == nil {
		return FetchResult{}, &FetchError{
			Message:   "no standard input attached",
			Retryable: false,
			Cause:     ErrCauseNotFound,
		}
	}
	body, err := d.readLimited(d.stdin)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{source: StdinSource, body: body}, nil
}

func (d *DocumentFetcher) readFile(path string) (FetchResult, failure.ClassifiedError) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return FetchResult{}, fileError(path, statErr)
	}
	if !info.Mode().IsRegular() {
		return FetchResult{}, &FetchError{
			Message:   path,
			Retryable: false,
			Cause:     ErrCauseNotRegularFile,
		}
	}

	file, openErr := os.Open(path)
	if openErr != nil {
		return FetchResult{}, fileError(path, openErr)
	}
	defer file.Close()

	body, err := d.readLimited(file)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{source: path, body: body}, nil
}

func fileError(path string, err error) *FetchError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &FetchError{Message: path, Retryable: false, Cause: ErrCauseNotFound}
	case errors.Is(err, fs.ErrPermission):
		return &FetchError{Message: path, Retryable: false, Cause: ErrCausePermissionDenied}
	default:
		return &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailure}
	}
}

// readLimited reads at most maxBytes, failing when r holds more.
func (d *DocumentFetcher) readLimited(r io.Reader) ([]byte, failure.ClassifiedError) {
	limit := d.fetchParam.maxBytes
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &FetchError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseReadFailure,
		}
	}
	if int64(len(body)) > limit {
		return nil, &FetchError{
			Message:   fmt.Sprintf("more than %d bytes", limit),
			Retryable: false,
			Cause:     ErrCauseTooLarge,
		}
	}
	return body, nil
}

func (d *DocumentFetcher) fetchRemote(ctx context.Context, source string) (FetchResult, failure.ClassifiedError) {
	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return d.performFetch(ctx, source)
	}

	result, err := retry.Retry(ctx, d.retryParam, fetchTask)
	if err != nil {
		return FetchResult{}, err
	}
	return result, nil
}

func (d *DocumentFetcher) performFetch(ctx context.Context, source string) (FetchResult, failure.ClassifiedError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	req.Header.Set("User-Agent", d.fetchParam.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errTooManyRedirects) {
			return FetchResult{}, &FetchError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseRedirectLimitExceeded,
			}
		}
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	if classified := classifyStatus(resp.StatusCode); classified != nil {
		return FetchResult{}, classified
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("content type %q", contentType),
			Retryable: false,
			Cause:     ErrCauseContentTypeInvalid,
		}
	}

	body, readErr := d.readLimited(resp.Body)
	if readErr != nil {
		return FetchResult{}, readErr
	}

	final := resp.Request.URL
	return FetchResult{
		source:      final.String(),
		body:        body,
		contentType: contentType,
		remote:      final,
	}, nil
}

// classifyStatus returns nil for 2xx responses.
func classifyStatus(code int) *FetchError {
	switch {
	case code >= 500:
		return &FetchError{
			Message:   fmt.Sprintf("server error: %d", code),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}
	case code == http.StatusTooManyRequests:
		return &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}
	case code >= 400:
		return &FetchError{
			Message:   fmt.Sprintf("client error: %d", code),
			Retryable: false,
			Cause:     ErrCauseRequestClientError,
		}
	case code >= 300:
		// http.Client follows redirects; a 3xx here had no usable Location
		return &FetchError{
			Message:   fmt.Sprintf("redirect error: %d", code),
			Retryable: false,
			Cause:     ErrCauseRedirectLimitExceeded,
		}
	case code < 200:
		return &FetchError{
			Message:   fmt.Sprintf("unexpected status: %d", code),
			Retryable: false,
			Cause:     ErrCauseRequestClientError,
		}
	}
	return nil
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}
