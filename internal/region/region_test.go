package region_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/internal/region"
	"github.com/rohmanhakim/record-finder/internal/similarity"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type comparison struct {
	leavesA, leavesB int
	similarity       float64
	fastPath         bool
}

type spySink struct {
	metadata.NoopSink
	runs        []string
	comparisons []comparison
	causes      []metadata.ErrorCause
}

func (s *spySink) RecordClusterRun(kind string, entities, clusters, merges int, capped bool, duration time.Duration) {
	s.runs = append(s.runs, kind)
}

func (s *spySink) RecordTreeComparison(leavesA, leavesB int, similarity float64, fastPath bool) {
	s.comparisons = append(s.comparisons, comparison{leavesA, leavesB, similarity, fastPath})
}

func (s *spySink) RecordError(observedAt time.Time, packageName, action string, cause metadata.ErrorCause, details string, attrs []metadata.Attribute) {
	s.causes = append(s.causes, cause)
}

// countingNodeSim wraps a node similarity and counts invocations.
func countingNodeSim(sim cluster.SimilarityFunc[model.ContentNode], calls *int) cluster.SimilarityFunc[model.ContentNode] {
	return func(a, b model.ContentNode) float64 {
		*calls++
		return sim(a, b)
	}
}

// pairSim scores nodes by ID from a symmetric table; unknown pairs score 0.
func pairSim(table map[[2]string]float64) cluster.SimilarityFunc[model.ContentNode] {
	return func(a, b model.ContentNode) float64 {
		if a == b {
			return 1
		}
		if s, ok := table[[2]string{a.ID(), b.ID()}]; ok {
			return s
		}
		return table[[2]string{b.ID(), a.ID()}]
	}
}

func text(id string, terms ...string) *model.TextNode {
	tf := map[string]float64{}
	for _, term := range terms {
		tf[term]++
	}
	return model.NewTextNode(id, []string{"ul", "li", "span"}, map[string]string{"color": "black"}, tf)
}

func link(t *testing.T, id, raw string) *model.HyperlinkNode {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return model.NewHyperlinkNode(id, []string{"ul", "li", "a"}, map[string]string{"color": "blue"}, u)
}

func subtree(label string, leaves ...model.ContentNode) *model.SubtreeNode {
	node := model.NewSubtreeNode(label)
	for _, leaf := range leaves {
		node.AppendChild(model.NewLeafSubtree(leaf))
	}
	return node
}

func ids[T interface{ ID() string }](clusters []cluster.Cluster[T]) [][]string {
	out := make([][]string, len(clusters))
	for i, c := range clusters {
		for _, member := range c {
			out[i] = append(out[i], member.ID())
		}
	}
	return out
}

func TestLeafClusterer_PartitionsByDataType(t *testing.T) {
	sink := &spySink{}
	calls := 0
	sim := func(a, b model.ContentNode) float64 {
		calls++
		assert.Equal(t, a.DataType(), b.DataType(), "cross-type pair scored")
		return 1
	}
	clusterer := region.NewLeafClusterer(sim, cluster.DefaultMaxEntities, sink)

	nodes := []model.ContentNode{
		link(t, "h1", "https://a.com/1"),
		text("t1", "x"),
		model.NewElementNode("e1", nil, nil, "input"),
		link(t, "h2", "https://a.com/2"),
		text("t2", "x"),
	}
	clusters := clusterer.Cluster(nodes, region.LeafThreshold)

	assert.Equal(t, [][]string{{"t1", "t2"}, {"h1", "h2"}, {"e1"}}, ids(clusters))
	assert.Equal(t, []string{"text", "hyperlink", "element"}, sink.runs)
	assert.Equal(t, 2, calls)
}

func TestLeafClusterer_WithNodeSimilarity(t *testing.T) {
	clusterer := region.NewLeafClusterer(similarity.NodeSimilarity, cluster.DefaultMaxEntities, &metadata.NoopSink{})

	nodes := []model.ContentNode{
		text("t1", "price", "usd"),
		text("t2", "price", "usd"),
		model.NewTextNode("t3", []string{"footer", "p"}, map[string]string{"color": "grey"}, map[string]float64{"copyright": 1}),
	}
	clusters := clusterer.Cluster(nodes, region.LeafThreshold)

	assert.Equal(t, [][]string{{"t1", "t2"}, {"t3"}}, ids(clusters))
}

func TestLeafClusterer_Empty(t *testing.T) {
	sink := &spySink{}
	clusterer := region.NewLeafClusterer(similarity.NodeSimilarity, cluster.DefaultMaxEntities, sink)

	assert.Empty(t, clusterer.Cluster(nil, region.LeafThreshold))
	assert.Empty(t, sink.runs)
}

func newComparator(sim cluster.SimilarityFunc[model.ContentNode], sink metadata.MetadataSink) *region.TreeComparator {
	leaves := region.NewLeafClusterer(sim, cluster.DefaultMaxEntities, sink)
	return region.NewTreeComparator(leaves, region.LeafThreshold, region.SizeRatioThreshold, sink)
}

func TestTreeComparator_SizeRatioFastPath(t *testing.T) {
	sink := &spySink{}
	calls := 0
	comparator := newComparator(countingNodeSim(similarity.NodeSimilarity, &calls), sink)

	a := subtree("li", text("a1", "x"), text("a2", "x"), text("a3", "x"))
	var bLeaves []model.ContentNode
	for _, id := range []string{"b0", "b1", "b2", "b3", "b4", "b5", "b6", "b7", "b8", "b9"} {
		bLeaves = append(bLeaves, text(id, "x"))
	}
	b := subtree("li", bLeaves...)

	assert.InDelta(t, 0.3, comparator.SubtreeSimilarity(a, b), 1e-12)
	assert.Zero(t, calls)
	assert.Empty(t, sink.runs)
	require.Len(t, sink.comparisons, 1)
	assert.True(t, sink.comparisons[0].fastPath)
}

func TestTreeComparator_EmptyRegions(t *testing.T) {
	comparator := newComparator(similarity.NodeSimilarity, &metadata.NoopSink{})
	empty := model.NewSubtreeNode("div")
	full := subtree("div", text("t1", "x"))

	assert.Equal(t, 1.0, comparator.SubtreeSimilarity(empty, model.NewSubtreeNode("div")))
	assert.Equal(t, 0.0, comparator.SubtreeSimilarity(empty, full))
	assert.Equal(t, 0.0, comparator.SubtreeSimilarity(full, empty))
}

func TestTreeComparator_Overlap(t *testing.T) {
	tests := []struct {
		name     string
		table    map[[2]string]float64
		expected float64
	}{
		{
			name:     "every leaf matched",
			table:    map[[2]string]float64{{"a1", "b1"}: 1, {"a2", "b2"}: 1},
			expected: 1,
		},
		{
			name:     "one leaf matched",
			table:    map[[2]string]float64{{"a1", "b1"}: 1},
			expected: 0.5,
		},
		{
			name:     "nothing matched",
			table:    map[[2]string]float64{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comparator := newComparator(pairSim(tt.table), &metadata.NoopSink{})
			a := subtree("li", text("a1", "x"), text("a2", "y"))
			b := subtree("li", text("b1", "x"), text("b2", "y"))

			assert.InDelta(t, tt.expected, comparator.SubtreeSimilarity(a, b), 1e-12)
		})
	}
}

func TestTreeComparator_RecordLikeSiblings(t *testing.T) {
	sink := &spySink{}
	comparator := newComparator(similarity.NodeSimilarity, sink)

	a := subtree("li", text("t1", "apple", "pie"), link(t, "h1", "https://shop.example.com/item/1"))
	b := subtree("li", text("t2", "apple", "pie"), link(t, "h2", "https://shop.example.com/item/1"))

	assert.InDelta(t, 1.0, comparator.SubtreeSimilarity(a, b), 1e-12)
	require.Len(t, sink.comparisons, 1)
	assert.False(t, sink.comparisons[0].fastPath)
	assert.Equal(t, []string{"text", "hyperlink"}, sink.runs)
}

func TestTreeComparator_RegionOfSiblings(t *testing.T) {
	comparator := newComparator(similarity.NodeSimilarity, &metadata.NoopSink{})

	title1 := subtree("h3", text("t1", "apple"))
	body1 := subtree("p", text("p1", "fresh", "fruit"))
	title2 := subtree("h3", text("t2", "apple"))
	body2 := subtree("p", text("p2", "fresh", "fruit"))

	score := comparator.Similarity(model.Region{title1, body1}, model.Region{title2, body2})

	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestTreeComparator_SelfComparison(t *testing.T) {
	comparator := newComparator(similarity.NodeSimilarity, &metadata.NoopSink{})
	a := subtree("li", text("t1", "apple"), text("t2", "banana", "split"))

	assert.InDelta(t, 1.0, comparator.SubtreeSimilarity(a, a), 1e-12)
}

func TestTreeComparator_DoesNotAffectLaterCalls(t *testing.T) {
	comparator := newComparator(similarity.NodeSimilarity, &metadata.NoopSink{})
	shared := text("s", "apple")
	a := subtree("li", shared, text("a", "pear"))
	b := subtree("li", text("b", "apple"), text("c", "plum"))

	first := comparator.SubtreeSimilarity(a, b)
	_ = comparator.SubtreeSimilarity(b, a)
	second := comparator.SubtreeSimilarity(a, b)

	assert.Equal(t, first, second)
}

// labelSim scores subtrees by label pair.
func labelSim(table map[[2]string]float64, calls *int) cluster.SimilarityFunc[*model.SubtreeNode] {
	return func(a, b *model.SubtreeNode) float64 {
		*calls++
		if s, ok := table[[2]string{a.Label(), b.Label()}]; ok {
			return s
		}
		return table[[2]string{b.Label(), a.Label()}]
	}
}

func labels(clusters []cluster.Cluster[*model.SubtreeNode]) [][]string {
	out := make([][]string, len(clusters))
	for i, c := range clusters {
		for _, member := range c {
			out[i] = append(out[i], member.Label())
		}
	}
	return out
}

func family(childLabels ...string) (*model.SubtreeNode, []*model.SubtreeNode) {
	parent := model.NewSubtreeNode("ul")
	children := make([]*model.SubtreeNode, len(childLabels))
	for i, label := range childLabels {
		children[i] = model.NewSubtreeNode(label)
		parent.AppendChild(children[i])
	}
	return parent, children
}

var c1c2Similar = map[[2]string]float64{{"c1", "c2"}: 1}

func TestTreeClusterCache_FullSetServedVerbatim(t *testing.T) {
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(c1c2Similar, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	_, children := family("c1", "c2", "c3")

	first, err := cache.ClusterSubtrees(children, region.TreeThreshold)
	require.Nil(t, err)
	callsAfterFirst := calls

	second, err := cache.ClusterSubtrees(children, region.TreeThreshold)
	require.Nil(t, err)

	assert.Equal(t, [][]string{{"c1", "c2"}, {"c3"}}, labels(first))
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, calls)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, cache.Hits())
}

func TestTreeClusterCache_SubsetFiltersCachedClusters(t *testing.T) {
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(c1c2Similar, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	_, children := family("c1", "c2", "c3")

	_, err := cache.ClusterSubtrees(children, region.TreeThreshold)
	require.Nil(t, err)
	callsAfterFull := calls

	subset, err := cache.ClusterSubtrees([]*model.SubtreeNode{children[0], children[2]}, region.TreeThreshold)
	require.Nil(t, err)

	assert.Equal(t, [][]string{{"c1"}, {"c3"}}, labels(subset))
	assert.Equal(t, callsAfterFull, calls)
}

func TestTreeClusterCache_SubsetWithoutEntryIsNotStored(t *testing.T) {
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(c1c2Similar, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	_, children := family("c1", "c2", "c3")

	clusters, err := cache.ClusterSubtrees(children[:2], region.TreeThreshold)
	require.Nil(t, err)

	assert.Equal(t, [][]string{{"c1", "c2"}}, labels(clusters))
	assert.Zero(t, cache.Len())
}

func TestTreeClusterCache_StaleSnapshotRecomputes(t *testing.T) {
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(c1c2Similar, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	parent, children := family("c1", "c2")

	_, err := cache.ClusterSubtrees(children, region.TreeThreshold)
	require.Nil(t, err)

	parent.AppendChild(model.NewSubtreeNode("c3"))
	callsBefore := calls

	clusters, err := cache.ClusterSubtrees(parent.Children(), region.TreeThreshold)
	require.Nil(t, err)

	assert.Greater(t, calls, callsBefore)
	assert.Equal(t, [][]string{{"c1", "c2"}, {"c3"}}, labels(clusters))
	assert.Equal(t, 1, cache.Len())
}

func TestTreeClusterCache_ThresholdChangeRecomputes(t *testing.T) {
	calls := 0
	table := map[[2]string]float64{{"c1", "c2"}: 0.6}
	cache := region.NewTreeClusterCache(labelSim(table, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	_, children := family("c1", "c2")

	loose, err := cache.ClusterSubtrees(children, 0.5)
	require.Nil(t, err)
	strict, err := cache.ClusterSubtrees(children, 0.7)
	require.Nil(t, err)

	assert.Len(t, loose, 1)
	assert.Len(t, strict, 2)
}

func TestTreeClusterCache_MixedParentsComputeUncached(t *testing.T) {
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(c1c2Similar, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	_, left := family("c1")
	_, right := family("c2")

	clusters, err := cache.ClusterSubtrees([]*model.SubtreeNode{left[0], right[0]}, region.TreeThreshold)
	require.Nil(t, err)

	assert.Equal(t, [][]string{{"c1", "c2"}}, labels(clusters))
	assert.Zero(t, cache.Len())
}

func TestTreeClusterCache_DegenerateInput(t *testing.T) {
	sink := &spySink{}
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(nil, &calls), cluster.DefaultMaxEntities, sink)

	clusters, err := cache.ClusterSubtrees(nil, region.TreeThreshold)
	require.NotNil(t, err)
	assert.Nil(t, clusters)
	assert.Equal(t, failure.SeverityFatal, err.Severity())

	var degenerate *region.DegenerateInputError
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, region.ErrCauseEmptyChildren, degenerate.Cause)

	_, err = cache.ClusterSubtrees([]*model.SubtreeNode{nil}, region.TreeThreshold)
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, region.ErrCauseNilSubtree, degenerate.Cause)

	assert.Equal(t, []metadata.ErrorCause{metadata.CauseDegenerateInput, metadata.CauseDegenerateInput}, sink.causes)
}

func TestTreeClusterCache_Reset(t *testing.T) {
	calls := 0
	cache := region.NewTreeClusterCache(labelSim(c1c2Similar, &calls), cluster.DefaultMaxEntities, &metadata.NoopSink{})
	_, children := family("c1", "c2")

	_, err := cache.ClusterSubtrees(children, region.TreeThreshold)
	require.Nil(t, err)
	cache.Reset()

	assert.Zero(t, cache.Len())
	assert.Zero(t, cache.Hits())
}

func TestFilterClusters(t *testing.T) {
	clusters := []cluster.Cluster[string]{{"a", "b"}, {"c"}, {"d", "e", "f"}}

	filtered := region.FilterClusters(clusters, []string{"b", "e", "f"})

	assert.Equal(t, []cluster.Cluster[string]{{"b"}, {"e", "f"}}, filtered)
	assert.Empty(t, region.FilterClusters(clusters, nil))
}
