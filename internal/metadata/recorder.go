package metadata

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Clustering runs (input size, cluster count, merges, cap hits)
- Region comparisons (leaf counts, fast-path rejections)
- Session cache statistics
- Classified errors

Metadata is write-only.
No component may read metadata to influence clustering decisions.
*/

/*
Recorder emits structured events through a zerolog logger.
It must not:
- affect control flow
- retain events for later reads
Ordering guarantees:
- Events are written synchronously in the order they are received.
*/
type Recorder struct {
	sessionId string
	logger    zerolog.Logger
}

func NewRecorder(sessionId string, logger zerolog.Logger) Recorder {
	return Recorder{
		sessionId: sessionId,
		logger:    logger.With().Str("session", sessionId).Logger(),
	}
}

// NewLogger builds the process logger. Console output is the default;
// jsonFormat switches to one JSON object per line. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string, jsonFormat bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if !jsonFormat {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	record := ErrorRecord{
		packageName: packageName,
		action:      action,
		cause:       cause,
		errorString: errorString,
		observedAt:  observedAt,
		attrs:       attrs,
	}

	event := r.logger.Error().
		Time("observed_at", record.observedAt).
		Str("package", record.packageName).
		Str("action", record.action).
		Stringer("cause", record.cause)
	for _, attr := range record.attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg(record.errorString)
}

func (r *Recorder) RecordClusterRun(
	kind string,
	entities int,
	clusters int,
	merges int,
	capped bool,
	duration time.Duration,
) {
	run := clusterRun{
		kind:       kind,
		entities:   entities,
		clusters:   clusters,
		merges:     merges,
		capped:     capped,
		durationMs: duration.Milliseconds(),
	}

	level := zerolog.DebugLevel
	if run.capped {
		// cap hits trade precision for speed; surface them
		level = zerolog.InfoLevel
	}
	r.logger.WithLevel(level).
		Str("kind", run.kind).
		Int("entities", run.entities).
		Int("clusters", run.clusters).
		Int("merges", run.merges).
		Bool("capped", run.capped).
		Int64("duration_ms", run.durationMs).
		Msg("cluster run")
}

func (r *Recorder) RecordTreeComparison(
	leavesA int,
	leavesB int,
	similarity float64,
	fastPath bool,
) {
	r.logger.Debug().
		Int("leaves_a", leavesA).
		Int("leaves_b", leavesB).
		Float64("similarity", similarity).
		Bool("fast_path", fastPath).
		Msg("region comparison")
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	event := r.logger.Info().
		Str("kind", string(kind)).
		Str("path", path)
	for _, attr := range attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg("artifact written")
}

/*
RecordSessionStats records the summary of one document's session.

Contract:
  - MUST be called at most once per document, after the last computation
    and before the session is reset for the next document.
  - The values MUST be derived from the session caches,
    not accumulated through the recorder.
*/
func (r *Recorder) RecordSessionStats(
	nodePairs int,
	nodeCacheHits int,
	treePairs int,
	treeCacheHits int,
	treeClusterSets int,
	duration time.Duration,
) {
	stats := sessionStats{
		nodePairs:       nodePairs,
		nodeCacheHits:   nodeCacheHits,
		treePairs:       treePairs,
		treeCacheHits:   treeCacheHits,
		treeClusterSets: treeClusterSets,
		durationMs:      duration.Milliseconds(),
	}

	r.logger.Info().
		Int("node_pairs", stats.nodePairs).
		Int("node_cache_hits", stats.nodeCacheHits).
		Int("tree_pairs", stats.treePairs).
		Int("tree_cache_hits", stats.treeCacheHits).
		Int("tree_cluster_sets", stats.treeClusterSets).
		Int64("duration_ms", stats.durationMs).
		Msg("session finished")
}

/*
RecordBatchStats records a terminal summary of a batch run.

Contract:
  - MUST be called exactly once per batch, including aborted ones.
*/
func (r *Recorder) RecordBatchStats(
	documents int,
	reports int,
	errors int,
	duration time.Duration,
) {
	stats := batchStats{
		documents:  documents,
		reports:    reports,
		errors:     errors,
		durationMs: duration.Milliseconds(),
	}

	r.logger.Info().
		Int("documents", stats.documents).
		Int("reports", stats.reports).
		Int("errors", stats.errors).
		Int64("duration_ms", stats.durationMs).
		Msg("batch finished")
}

func (r *Recorder) RecordDocumentLoad(source string, sizeBytes int, duration time.Duration) {
	r.logger.Debug().
		Str("source", source).
		Int("size_bytes", sizeBytes).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("document loaded")
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordClusterRun(
		kind string,
		entities int,
		clusters int,
		merges int,
		capped bool,
		duration time.Duration,
	)

	RecordTreeComparison(
		leavesA int,
		leavesB int,
		similarity float64,
		fastPath bool,
	)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)

	RecordDocumentLoad(source string, sizeBytes int, duration time.Duration)
}

type SessionFinalizer interface {
	RecordSessionStats(
		nodePairs int,
		nodeCacheHits int,
		treePairs int,
		treeCacheHits int,
		treeClusterSets int,
		duration time.Duration,
	)
}

type BatchFinalizer interface {
	RecordBatchStats(
		documents int,
		reports int,
		errors int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink, SessionFinalizer and BatchFinalizer but does nothing.
// Callers (and tests) decide whether to inject a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordClusterRun(
	kind string,
	entities int,
	clusters int,
	merges int,
	capped bool,
	duration time.Duration,
) {
}

func (n *NoopSink) RecordTreeComparison(leavesA int, leavesB int, similarity float64, fastPath bool) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordSessionStats(
	nodePairs int,
	nodeCacheHits int,
	treePairs int,
	treeCacheHits int,
	treeClusterSets int,
	duration time.Duration,
) {
}

func (n *NoopSink) RecordBatchStats(documents int, reports int, errors int, duration time.Duration) {}

func (n *NoopSink) RecordDocumentLoad(source string, sizeBytes int, duration time.Duration) {}
