package session

import (
	"time"

	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/internal/region"
	"github.com/rohmanhakim/record-finder/internal/simcache"
	"github.com/rohmanhakim/record-finder/internal/similarity"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

/*
Session is the entry point for scoring and clustering one document.

Responsibilities
- Own the node-pair, subtree-pair and subtree-cluster caches
- Validate content nodes before any of them is scored
- Record classified errors before returning them

Caches live as long as the Session; call Reset before moving to the next
document. A Session is not safe for concurrent use: run one per goroutine.
*/
type Session struct {
	scorer        similarity.Scorer
	leafThreshold float64
	treeThreshold float64

	nodeCache *simcache.PairCache[model.ContentNode]
	treeCache *simcache.PairCache[*model.SubtreeNode]
	leaves    *region.LeafClusterer
	trees     *region.TreeComparator
	subtrees  *region.TreeClusterCache

	sink      metadata.MetadataSink
	finalizer metadata.SessionFinalizer
	startedAt time.Time
}

func New(cfg config.Config, sink metadata.MetadataSink, finalizer metadata.SessionFinalizer) *Session {
	s := &Session{
		scorer:        similarity.NewScorer(cfg.Weights()),
		leafThreshold: cfg.LeafThreshold(),
		treeThreshold: cfg.TreeThreshold(),
		nodeCache:     simcache.NewPairCache[model.ContentNode](),
		treeCache:     simcache.NewPairCache[*model.SubtreeNode](),
		sink:          sink,
		finalizer:     finalizer,
		startedAt:     time.Now(),
	}
	s.leaves = region.NewLeafClusterer(s.memoizedNode, cfg.MaxClusterEntities(), sink)
	s.trees = region.NewTreeComparator(s.leaves, cfg.LeafThreshold(), cfg.SizeRatioThreshold(), sink)
	s.subtrees = region.NewTreeClusterCache(s.memoizedTree, cfg.MaxClusterEntities(), sink)
	return s
}

// NodeSimilarity scores two content nodes without touching the cache.
func (s *Session) NodeSimilarity(a, b model.ContentNode) (float64, failure.ClassifiedError) {
	if err := s.validateNodes("NodeSimilarity", []model.ContentNode{a, b}); err != nil {
		return 0, err
	}
	return s.scorer.Node(a, b), nil
}

// MemoizedNodeSimilarity scores two content nodes at most once per session.
func (s *Session) MemoizedNodeSimilarity(a, b model.ContentNode) (float64, failure.ClassifiedError) {
	if err := s.validateNodes("MemoizedNodeSimilarity", []model.ContentNode{a, b}); err != nil {
		return 0, err
	}
	return s.memoizedNode(a, b), nil
}

// TreeSimilarity scores two regions without touching the subtree-pair cache.
// Leaf pairs are still served from the node cache.
func (s *Session) TreeSimilarity(a, b model.Region) (float64, failure.ClassifiedError) {
	if err := s.validateNodes("TreeSimilarity", append(a.LeafNodes(), b.LeafNodes()...)); err != nil {
		return 0, err
	}
	return s.trees.Similarity(a, b), nil
}

// MemoizedTreeSimilarity scores two subtrees at most once per session.
func (s *Session) MemoizedTreeSimilarity(a, b *model.SubtreeNode) (float64, failure.ClassifiedError) {
	leaves := append(model.SingleRegion(a).LeafNodes(), model.SingleRegion(b).LeafNodes()...)
	if err := s.validateNodes("MemoizedTreeSimilarity", leaves); err != nil {
		return 0, err
	}
	return s.memoizedTree(a, b), nil
}

// ClusterContentNodes groups nodes with the configured leaf threshold.
func (s *Session) ClusterContentNodes(nodes []model.ContentNode) ([]cluster.Cluster[model.ContentNode], failure.ClassifiedError) {
	return s.ClusterContentNodesWithThreshold(nodes, s.leafThreshold)
}

func (s *Session) ClusterContentNodesWithThreshold(
	nodes []model.ContentNode,
	threshold float64,
) ([]cluster.Cluster[model.ContentNode], failure.ClassifiedError) {
	if err := s.validateNodes("ClusterContentNodes", nodes); err != nil {
		return nil, err
	}
	return s.leaves.Cluster(nodes, threshold), nil
}

// ClusterSubtrees groups sibling subtrees with the configured tree threshold.
func (s *Session) ClusterSubtrees(children []*model.SubtreeNode) ([]cluster.Cluster[*model.SubtreeNode], failure.ClassifiedError) {
	return s.ClusterSubtreesWithThreshold(children, s.treeThreshold)
}

func (s *Session) ClusterSubtreesWithThreshold(
	children []*model.SubtreeNode,
	threshold float64,
) ([]cluster.Cluster[*model.SubtreeNode], failure.ClassifiedError) {
	if err := s.validateNodes("ClusterSubtrees", model.Region(children).LeafNodes()); err != nil {
		return nil, err
	}
	return s.subtrees.ClusterSubtrees(children, threshold)
}

func (s *Session) Stats() Stats {
	nodes := s.nodeCache.Stats()
	trees := s.treeCache.Stats()
	return Stats{
		NodePairs:       nodes.Entries,
		NodeCacheHits:   nodes.Hits,
		TreePairs:       trees.Entries,
		TreeCacheHits:   trees.Hits,
		TreeClusterSets: s.subtrees.Len(),
		TreeClusterHits: s.subtrees.Hits(),
	}
}

// Reset drops every cache. Call it between documents.
func (s *Session) Reset() {
	s.nodeCache.Reset()
	s.treeCache.Reset()
	s.subtrees.Reset()
	s.startedAt = time.Now()
}

// Finish records the summary of the current document. Call it once per
// document, after its last computation and before Reset.
func (s *Session) Finish() {
	stats := s.Stats()
	s.finalizer.RecordSessionStats(
		stats.NodePairs,
		stats.NodeCacheHits,
		stats.TreePairs,
		stats.TreeCacheHits,
		stats.TreeClusterSets,
		time.Since(s.startedAt),
	)
}

func (s *Session) memoizedNode(a, b model.ContentNode) float64 {
	return s.nodeCache.Get(a, b, s.scorer.Node)
}

func (s *Session) memoizedTree(a, b *model.SubtreeNode) float64 {
	return s.treeCache.Get(a, b, s.trees.SubtreeSimilarity)
}

func (s *Session) validateNodes(action string, nodes []model.ContentNode) failure.ClassifiedError {
	err := model.ValidateAll(nodes)
	if err == nil {
		return nil
	}

	attrs := []metadata.Attribute{}
	if err.NodeID != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrNodeID, err.NodeID))
	}
	s.sink.RecordError(
		time.Now(),
		"session",
		action,
		model.MapPreconditionErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
	return err
}
