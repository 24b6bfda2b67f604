package storage

// Artifact is one rendered report ready to persist.
type Artifact struct {
	source    string
	extension string
	content   []byte
}

func NewArtifact(source string, extension string, content []byte) Artifact {
	return Artifact{
		source:    source,
		extension: extension,
		content:   content,
	}
}

func (a Artifact) Source() string {
	return a.source
}

func (a Artifact) Extension() string {
	return a.extension
}

func (a Artifact) Content() []byte {
	return a.content
}

// Persistence

type WriteResult struct {
	sourceHash  string // identity (filename without extension)
	path        string
	contentHash string
	written     bool
}

func NewWriteResult(
	sourceHash string,
	path string,
	contentHash string,
	written bool,
) WriteResult {
	return WriteResult{
		sourceHash:  sourceHash,
		path:        path,
		contentHash: contentHash,
		written:     written,
	}
}

func (w *WriteResult) SourceHash() string {
	return w.sourceHash
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

// Written is false for dry runs.
func (w *WriteResult) Written() bool {
	return w.written
}
