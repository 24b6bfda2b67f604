package frontier

import (
	"net/url"
	"path/filepath"

	"github.com/rohmanhakim/record-finder/internal/fetcher"
	"github.com/rohmanhakim/record-finder/pkg/set"
	"github.com/rohmanhakim/record-finder/pkg/urlutil"
)

/*
Frontier Responsibilities
- Keep documents in submission order
- Deduplicate sources that name the same document
- Knows nothing about:
  - fetching
  - extraction
  - clustering
  - storage

It is a data structure + policy module, not a pipeline executor.
*/
type Frontier struct {
	queue      *FIFOQueue[DocumentToken]
	seen       set.Set[string]
	admitted   int
	duplicates int
}

func NewFrontier() *Frontier {
	return &Frontier{
		queue: NewFIFOQueue[DocumentToken](),
		seen:  set.New[string](),
	}
}

// Submit enqueues source unless an equivalent source was submitted before.
// It reports whether source was admitted.
func (f *Frontier) Submit(source string) bool {
	key := SourceKey(source)
	if f.seen.Contains(key) {
		f.duplicates++
		return false
	}
	f.seen.Add(key)
	f.queue.Enqueue(NewDocumentToken(source, f.admitted))
	f.admitted++
	return true
}

func (f *Frontier) Dequeue() (DocumentToken, bool) {
	return f.queue.Dequeue()
}

// Pending is the number of admitted documents not yet dequeued.
func (f *Frontier) Pending() int {
	return f.queue.Size()
}

func (f *Frontier) Admitted() int {
	return f.admitted
}

func (f *Frontier) Duplicates() int {
	return f.duplicates
}

/*
SourceKey maps equivalent spellings of a source to one key.

  - "" and "-" both name standard input
  - remote URLs are canonicalized; unlike link comparison the query is
    kept, in sorted order, because it usually selects a different page
  - file paths are cleaned and made absolute when possible
*/
func SourceKey(source string) string {
	if source == "" || source == fetcher.StdinArg {
		return fetcher.StdinSource
	}

	if fetcher.IsRemote(source) {
		u, err := url.Parse(source)
		if err == nil {
			canonical := urlutil.Canonicalize(*u)
			canonical.RawQuery = u.Query().Encode()
			return canonical.String()
		}
	}

	path := filepath.Clean(source)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file:" + path
}
