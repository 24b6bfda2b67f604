package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/internal/features"
	"github.com/rohmanhakim/record-finder/internal/fetcher"
	"github.com/rohmanhakim/record-finder/internal/frontier"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/internal/report"
	"github.com/rohmanhakim/record-finder/internal/session"
	"github.com/rohmanhakim/record-finder/internal/storage"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/hashutil"
	"github.com/rohmanhakim/record-finder/pkg/limiter"
	"github.com/rohmanhakim/record-finder/pkg/timeutil"
)

/*
Scheduler is the sole control-plane authority of a batch.

Guarantees:
  - Documents are processed one at a time, in submission order.
  - Only the scheduler submits sources to the frontier.
  - One session serves the whole batch; its caches are reset between
    documents so no similarity leaks from one document into the next.
  - Requests to one host are paced; a host that keeps failing is backed off.
  - Pipeline stages may detect and classify failure, but must never decide
    continuation or abortion.

Metadata emission is observational only and MUST NOT influence
scheduling or batch termination.

Responsibilities:
  - Coordinate the batch lifecycle
  - Manage graceful shutdown through the context
  - Aggregate batch statistics
  - Decide whether a failed document continues or aborts the batch
*/
type Scheduler struct {
	cfg             config.Config
	metadataSink    metadata.MetadataSink
	batchFinalizer  metadata.BatchFinalizer
	frontier        *frontier.Frontier
	documentFetcher fetcher.Fetcher
	rateLimiter     limiter.RateLimiter
	session         *session.Session
	reportBuilder   *report.Builder
	storageSink     storage.Sink
}

// NewScheduler wires the local pipeline: files, stdin and http(s) sources
// in, reports written under the configured output directory.
func NewScheduler(cfg config.Config, stdin io.Reader, recorder *metadata.Recorder) Scheduler {
	documentFetcher := fetcher.NewDocumentFetcher(
		recorder,
		stdin,
		fetcher.NewFetchParam(cfg.MaxDocumentBytes(), cfg.Timeout(), cfg.UserAgent()),
		cfg.RetryParam(),
	)
	storageSink := storage.NewLocalSink(recorder, cfg.DryRun())
	return NewSchedulerWithDeps(cfg, recorder, recorder, recorder, &documentFetcher, &storageSink)
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies for testing.
func NewSchedulerWithDeps(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	sessionFinalizer metadata.SessionFinalizer,
	batchFinalizer metadata.BatchFinalizer,
	documentFetcher fetcher.Fetcher,
	storageSink storage.Sink,
) Scheduler {
	return Scheduler{
		cfg:             cfg,
		metadataSink:    metadataSink,
		batchFinalizer:  batchFinalizer,
		frontier:        frontier.NewFrontier(),
		documentFetcher: documentFetcher,
		rateLimiter:     limiter.NewConcurrentRateLimiter(cfg.HostDelay(), cfg.HostJitter(), cfg.BackoffParam()),
		session:         session.New(cfg, metadataSink, sessionFinalizer),
		reportBuilder:   report.NewBuilder(metadataSink),
		storageSink:     storageSink,
	}
}

// ExecuteBatch clusters every document named by sources. No sources means
// standard input. Fatal failures abort the batch; recoverable ones are
// counted and the document is skipped. Cancelling ctx stops the batch before
// the next document.
func (s *Scheduler) ExecuteBatch(ctx context.Context, sources []string, plan Plan) (BatchExecution, error) {
	batchStartTime := time.Now()
	var execution BatchExecution

	// Ensure final stats are recorded even if the batch aborts
	defer func() {
		s.batchFinalizer.RecordBatchStats(
			s.frontier.Admitted(),
			len(execution.Outcomes),
			execution.Errors,
			time.Since(batchStartTime),
		)
	}()

	if len(sources) == 0 {
		sources = []string{fetcher.StdinArg}
	}
	for _, source := range sources {
		s.frontier.Submit(source)
	}
	execution.Duplicates = s.frontier.Duplicates()

	for {
		if err := ctx.Err(); err != nil {
			return execution, err
		}

		token, ok := s.frontier.Dequeue()
		if !ok {
			break
		}

		outcome, err := s.processDocument(ctx, token, plan)
		if err != nil {
			if err.Severity() == failure.SeverityFatal {
				return execution, err
			}
			// recoverable → already recorded → count error
			execution.Errors++
			continue
		}
		execution.Outcomes = append(execution.Outcomes, outcome)
	}

	return execution, nil
}

// Load fetches and extracts one document.
func (s *Scheduler) Load(ctx context.Context, source string) (features.Document, failure.ClassifiedError) {
	fetchResult, err := s.fetch(ctx, source)
	if err != nil {
		return features.Document{}, err
	}

	// an explicit base wins; otherwise remote pages resolve against themselves
	baseURL := s.cfg.BaseURL()
	if baseURL == nil {
		baseURL = fetchResult.URL()
	}
	extractor := features.NewExtractor(s.metadataSink, baseURL)
	return extractor.Extract(fetchResult.Source(), fetchResult.Body(), s.cfg.ContainerSelector())
}

// fetch waits out the host's delay before a remote request and updates
// the host's backoff from the outcome.
func (s *Scheduler) fetch(ctx context.Context, source string) (fetcher.FetchResult, failure.ClassifiedError) {
	host := remoteHost(source)
	if host == "" {
		return s.documentFetcher.Fetch(ctx, source)
	}

	if sleepErr := timeutil.Sleep(ctx, s.rateLimiter.ResolveDelay(host)); sleepErr != nil {
		return fetcher.FetchResult{}, &SchedulerError{
			Message:   "cancelled while waiting for " + host,
			Retryable: false,
			Cause:     sleepErr,
		}
	}

	result, err := s.documentFetcher.Fetch(ctx, source)
	s.rateLimiter.MarkLastFetchAsNow(host)
	switch {
	case err == nil:
		s.rateLimiter.ResetBackoff(host)
	case !failure.IsFatal(err):
		s.rateLimiter.Backoff(host)
	}
	return result, err
}

// remoteHost returns the lower-cased host of an http(s) source, or "".
func remoteHost(source string) string {
	if !fetcher.IsRemote(source) {
		return ""
	}
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Compare scores the regions matched by two selectors in doc.
func (s *Scheduler) Compare(doc features.Document, selectorA, selectorB string) (float64, failure.ClassifiedError) {
	defer s.finishDocument()

	regionA, err := s.selectRegion(doc, selectorA)
	if err != nil {
		return 0, err
	}
	regionB, err := s.selectRegion(doc, selectorB)
	if err != nil {
		return 0, err
	}
	return s.session.TreeSimilarity(regionA, regionB)
}

func (s *Scheduler) processDocument(ctx context.Context, token frontier.DocumentToken, plan Plan) (DocumentOutcome, failure.ClassifiedError) {
	doc, err := s.Load(ctx, token.Source())
	if err != nil {
		return DocumentOutcome{}, err
	}
	defer s.finishDocument()

	built, err := s.buildReport(doc, plan)
	if err != nil {
		return DocumentOutcome{}, err
	}

	rendered, err := report.Render(built, s.cfg.ReportFormat())
	if err != nil {
		return DocumentOutcome{}, err
	}

	outcome := DocumentOutcome{
		Source:   doc.Source(),
		Report:   built,
		Rendered: rendered,
	}
	if !plan.Persist {
		return outcome, nil
	}

	artifact := storage.NewArtifact(doc.Source(), report.Extension(s.cfg.ReportFormat()), rendered)
	writeResult, err := s.storageSink.Write(s.cfg.OutputDir(), artifact, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return DocumentOutcome{}, err
	}
	outcome.WriteResult = writeResult
	return outcome, nil
}

func (s *Scheduler) buildReport(doc features.Document, plan Plan) (report.Report, failure.ClassifiedError) {
	switch plan.Mode {
	case report.ModeLeaves:
		clusters, err := s.session.ClusterContentNodes(doc.ContentNodes())
		if err != nil {
			return report.Report{}, err
		}
		return s.reportBuilder.Leaves(doc.Source(), s.cfg.LeafThreshold(), clusters), nil

	case report.ModeSubtrees:
		parent, err := s.recordsParent(doc, plan.ParentSelector)
		if err != nil {
			return report.Report{}, err
		}
		clusters, err := s.session.ClusterSubtrees(parent.Children())
		if err != nil {
			return report.Report{}, err
		}
		return s.reportBuilder.Subtrees(doc, s.cfg.TreeThreshold(), clusters)

	default:
		return report.Report{}, s.fail("Scheduler.buildReport", doc.Source(), &SchedulerError{
			Message:   fmt.Sprintf("%q", plan.Mode),
			Retryable: false,
			Cause:     ErrUnknownMode,
		})
	}
}

// finishDocument records the session summary of the current document and
// clears the caches for the next one.
func (s *Scheduler) finishDocument() {
	s.session.Finish()
	s.session.Reset()
}

func (s *Scheduler) selectRegion(doc features.Document, selector string) (model.Region, failure.ClassifiedError) {
	region := doc.Select(selector)
	if len(region) == 0 {
		return nil, s.fail("Scheduler.selectRegion", doc.Source(), &SchedulerError{
			Message:   fmt.Sprintf("%q", selector),
			Retryable: false,
			Cause:     ErrNoMatch,
		})
	}
	return region, nil
}

// recordsParent picks the subtree whose children are clustered: the first
// match of selector, or the inner node with the most children.
func (s *Scheduler) recordsParent(doc features.Document, selector string) (*model.SubtreeNode, failure.ClassifiedError) {
	if selector != "" {
		region, err := s.selectRegion(doc, selector)
		if err != nil {
			return nil, err
		}
		return region[0], nil
	}

	best := widestFamily(doc.Tree())
	if best == nil {
		return nil, s.fail("Scheduler.recordsParent", doc.Source(), &SchedulerError{
			Message:   "document has no inner nodes",
			Retryable: false,
			Cause:     ErrNoRecordsParent,
		})
	}
	return best, nil
}

// widestFamily returns the inner node with the most children, the first in
// document order on ties.
func widestFamily(root *model.SubtreeNode) *model.SubtreeNode {
	var best *model.SubtreeNode
	var walk func(*model.SubtreeNode)
	walk = func(n *model.SubtreeNode) {
		if n == nil || n.IsLeaf() {
			return
		}
		if best == nil || n.ChildCount() > best.ChildCount() {
			best = n
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(root)
	return best
}

func (s *Scheduler) fail(callerMethod string, source string, err *SchedulerError) *SchedulerError {
	s.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		callerMethod,
		mapSchedulerErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSource, source),
		},
	)
	return err
}
