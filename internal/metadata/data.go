package metadata

import (
	"time"
)

/*
clusterRun
  - Describes one invocation of the clustering engine
  - Is observational only; the engine result never depends on it
*/
type clusterRun struct {
	kind       string
	entities   int
	clusters   int
	merges     int
	capped     bool
	durationMs int64
}

/*
sessionStats
  - Terminal summary of one extraction session
  - Derived from the session caches at Finish time
  - Recorded exactly once per session
*/
type sessionStats struct {
	nodePairs       int
	nodeCacheHits   int
	treePairs       int
	treeCacheHits   int
	treeClusterSets int
	durationMs      int64
}

/*
batchStats
  - Terminal summary of one batch of documents
  - Recorded exactly once per batch
*/
type batchStats struct {
	documents  int
	reports    int
	errors     int
	durationMs int64
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values have stable, package-agnostic semantics.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CausePreconditionViolation

  - A content node lacks the features its data type requires.
  - Examples: text node without a term-frequency vector, element node without a tag name.

# CauseDegenerateInput

  - Input is well typed but carries nothing to compare.
  - Examples: subtree clustering over an empty child list.

# CauseContentInvalid

  - The source document could not be turned into a content tree.
  - Examples: non-HTML input, container selector matching nothing.

# CauseReadFailure

  - A source document could not be read.
  - Examples: missing file, permission denied, oversized input.

# CauseStorageFailure

  - Failure while persisting a report.

# CauseInvariantViolation

  - An internal consistency check failed.
*/
const (
	CauseUnknown ErrorCause = iota
	CausePreconditionViolation
	CauseDegenerateInput
	CauseContentInvalid
	CauseReadFailure
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CausePreconditionViolation:
		return "precondition_violation"
	case CauseDegenerateInput:
		return "degenerate_input"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseReadFailure:
		return "read_failure"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrNodeID    AttributeKey = "node_id"
	AttrDataType  AttributeKey = "data_type"
	AttrSelector  AttributeKey = "selector"
	AttrSource    AttributeKey = "source"
	AttrField     AttributeKey = "field"
	AttrWritePath AttributeKey = "write_path"
	AttrCount     AttributeKey = "count"
)

type ArtifactKind string

const (
	ArtifactReport ArtifactKind = "report"
)
