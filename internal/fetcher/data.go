package fetcher

import (
	"net/url"
	"time"
)

// Source spellings that read the process's standard input.
const (
	StdinArg    = "-"
	StdinSource = "stdin"
)

type FetchParam struct {
	maxBytes  int64
	timeout   time.Duration
	userAgent string
}

func NewFetchParam(maxBytes int64, timeout time.Duration, userAgent string) FetchParam {
	return FetchParam{
		maxBytes:  maxBytes,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// FetchResult is one loaded document. For remote documents source is the
// final URL after redirects.
type FetchResult struct {
	source      string
	body        []byte
	contentType string
	remote      *url.URL
}

func (f *FetchResult) Source() string {
	return f.source
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) SizeByte() int {
	return len(f.body)
}

func (f *FetchResult) ContentType() string {
	return f.contentType
}

// URL returns the address a remote document was served from, or nil for
// files and standard input.
func (f *FetchResult) URL() *url.URL {
	if f.remote == nil {
		return nil
	}
	u := *f.remote
	return &u
}

// NewFetchResultForTest lets test packages build results without a fetch.
func NewFetchResultForTest(source string, body []byte, remote *url.URL) FetchResult {
	return FetchResult{
		source: source,
		body:   body,
		remote: remote,
	}
}
