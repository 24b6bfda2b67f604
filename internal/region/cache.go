package region

import (
	"slices"
	"strconv"
	"time"

	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/set"
)

/*
TreeClusterCache clusters sibling subtrees and remembers the result per parent.

Responsibilities
- Key clusterings by the parent shared by all queried children
- Serve the full current child set verbatim from the cache
- Serve a strict subset by filtering the cached clusters
- Drop an entry whose child snapshot no longer matches the parent

An entry is only ever stored for a clustering over the parent's full child
set. Queries with a different threshold than the stored one are computed
again and, when they cover the full set, replace the entry.

TreeClusterCache is not safe for concurrent use.
*/
type TreeClusterCache struct {
	similarity  cluster.SimilarityFunc[*model.SubtreeNode]
	maxEntities int
	sink        metadata.MetadataSink
	entries     map[*model.SubtreeNode]cacheEntry
	hits        int
}

func NewTreeClusterCache(
	similarity cluster.SimilarityFunc[*model.SubtreeNode],
	maxEntities int,
	sink metadata.MetadataSink,
) *TreeClusterCache {
	return &TreeClusterCache{
		similarity:  similarity,
		maxEntities: maxEntities,
		sink:        sink,
		entries:     make(map[*model.SubtreeNode]cacheEntry),
	}
}

// ClusterSubtrees groups children by tree similarity. The returned clusters
// may be shared with the cache and must not be modified.
func (c *TreeClusterCache) ClusterSubtrees(
	children []*model.SubtreeNode,
	threshold float64,
) ([]cluster.Cluster[*model.SubtreeNode], failure.ClassifiedError) {
	if len(children) == 0 {
		err := &DegenerateInputError{
			Message: "no subtrees to cluster",
			Cause:   ErrCauseEmptyChildren,
		}
		c.recordError(err, 0)
		return nil, err
	}
	if slices.Contains(children, nil) {
		err := &DegenerateInputError{
			Message: "subtree list contains a nil entry",
			Cause:   ErrCauseNilSubtree,
		}
		c.recordError(err, len(children))
		return nil, err
	}

	parent := sharedParent(children)
	if parent == nil {
		// detached or mixed parents have nothing to key on
		return c.compute(children, threshold), nil
	}

	current := parent.Children()
	full := coversAll(children, current)

	if entry, exists := c.entries[parent]; exists {
		switch {
		case !slices.Equal(entry.children, current):
			delete(c.entries, parent)
		case entry.threshold != threshold:
			// computed again below
		case full:
			c.hits++
			return entry.clusters, nil
		default:
			c.hits++
			return FilterClusters(entry.clusters, children), nil
		}
	}

	clusters := c.compute(children, threshold)
	if full {
		c.entries[parent] = cacheEntry{
			threshold: threshold,
			children:  slices.Clone(current),
			clusters:  clusters,
		}
	}
	return clusters, nil
}

// Len returns the number of parents with a stored clustering.
func (c *TreeClusterCache) Len() int {
	return len(c.entries)
}

// Hits returns how many queries were served from a stored clustering.
func (c *TreeClusterCache) Hits() int {
	return c.hits
}

func (c *TreeClusterCache) Reset() {
	c.entries = make(map[*model.SubtreeNode]cacheEntry)
	c.hits = 0
}

func (c *TreeClusterCache) compute(children []*model.SubtreeNode, threshold float64) []cluster.Cluster[*model.SubtreeNode] {
	engine := cluster.New(c.similarity, cluster.AverageLink[*model.SubtreeNode], cluster.Params{
		Threshold:   threshold,
		MaxEntities: c.maxEntities,
	})

	start := time.Now()
	result := engine.Run(children)
	c.sink.RecordClusterRun(
		"subtree",
		len(children),
		len(result.Clusters),
		result.Merges,
		result.Capped,
		time.Since(start),
	)
	return result.Clusters
}

func (c *TreeClusterCache) recordError(err *DegenerateInputError, count int) {
	c.sink.RecordError(
		time.Now(),
		"region",
		"TreeClusterCache.ClusterSubtrees",
		mapDegenerateInputErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrCount, strconv.Itoa(count)),
		},
	)
}

// FilterClusters keeps only the members listed in present, preserving the
// grouping and member order. Clusters left empty are dropped.
func FilterClusters[T comparable](clusters []cluster.Cluster[T], present []T) []cluster.Cluster[T] {
	keep := set.Of(present...)
	var filtered []cluster.Cluster[T]
	for _, c := range clusters {
		var members cluster.Cluster[T]
		for _, member := range c {
			if keep.Contains(member) {
				members = append(members, member)
			}
		}
		if len(members) > 0 {
			filtered = append(filtered, members)
		}
	}
	return filtered
}

// sharedParent returns the parent common to every child, or nil when the
// children are detached or belong to different parents.
func sharedParent(children []*model.SubtreeNode) *model.SubtreeNode {
	parent := children[0].Parent()
	for _, child := range children[1:] {
		if child.Parent() != parent {
			return nil
		}
	}
	return parent
}

func coversAll(query, current []*model.SubtreeNode) bool {
	queried := set.Of(query...)
	return queried.Size() == len(current) && queried.ContainsAll(current)
}
