package region

import (
	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/model"
)

const (
	// LeafThreshold is the default merge threshold for content node clustering.
	LeafThreshold = 0.7
	// TreeThreshold is the default merge threshold for subtree clustering.
	TreeThreshold = 0.5
	// SizeRatioThreshold is the leaf-count ratio below which two regions
	// score their ratio directly instead of being clustered.
	SizeRatioThreshold = 0.5
)

// origin marks which regions of one comparison a leaf was taken from.
type origin uint8

const (
	fromA origin = 1 << iota
	fromB
)

// provenance is the side table of one TreeComparator.Similarity call.
// A leaf shared by both regions carries both marks.
type provenance map[model.ContentNode]origin

func newProvenance(leavesA, leavesB []model.ContentNode) provenance {
	p := make(provenance, len(leavesA)+len(leavesB))
	for _, leaf := range leavesA {
		p[leaf] |= fromA
	}
	for _, leaf := range leavesB {
		p[leaf] |= fromB
	}
	return p
}

// tally classifies each cluster by the origins of its members.
func (p provenance) tally(clusters []cluster.Cluster[model.ContentNode]) overlap {
	var o overlap
	for _, c := range clusters {
		var marks origin
		for _, leaf := range c {
			marks |= p[leaf]
		}
		switch {
		case marks&fromA != 0 && marks&fromB != 0:
			o.both++
		case marks&fromA != 0:
			o.onlyA++
		case marks&fromB != 0:
			o.onlyB++
		}
	}
	return o
}

// overlap tallies clusters by the regions their members came from.
type overlap struct {
	onlyA int
	onlyB int
	both  int
}

func (o overlap) countA() int {
	return o.onlyA + o.both
}

func (o overlap) countB() int {
	return o.onlyB + o.both
}

// score is the share of clusters populated by both regions, relative to
// the region spanning more clusters.
func (o overlap) score() float64 {
	denominator := max(o.countA(), o.countB())
	if denominator == 0 {
		return 0
	}
	return float64(o.both) / float64(denominator)
}

// cacheEntry is one parent's clustering together with the child list it was
// computed over.
type cacheEntry struct {
	threshold float64
	children  []*model.SubtreeNode
	clusters  []cluster.Cluster[*model.SubtreeNode]
}
