package region

import (
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
)

/*
TreeComparator scores how alike two candidate regions are.

Steps
 1. collect the leaf sequence of each region
 2. both empty: 1
 3. ratio = min(|A|, |B|) / max(|A|, |B|); below the size-ratio threshold the
    ratio itself is returned and nothing is clustered
 4. cluster the union of both leaf sets with the leaf threshold
 5. count clusters holding only A leaves, only B leaves, or both
 6. return both / max(countA, countB)

Provenance is kept in a side table local to one call; content nodes are
never written.
*/
type TreeComparator struct {
	leaves             *LeafClusterer
	leafThreshold      float64
	sizeRatioThreshold float64
	sink               metadata.MetadataSink
}

func NewTreeComparator(
	leaves *LeafClusterer,
	leafThreshold float64,
	sizeRatioThreshold float64,
	sink metadata.MetadataSink,
) *TreeComparator {
	return &TreeComparator{
		leaves:             leaves,
		leafThreshold:      leafThreshold,
		sizeRatioThreshold: sizeRatioThreshold,
		sink:               sink,
	}
}

func (t *TreeComparator) Similarity(a, b model.Region) float64 {
	leavesA := a.LeafNodes()
	leavesB := b.LeafNodes()
	sizeA, sizeB := len(leavesA), len(leavesB)

	if sizeA == 0 && sizeB == 0 {
		t.sink.RecordTreeComparison(sizeA, sizeB, 1, true)
		return 1
	}

	ratio := float64(min(sizeA, sizeB)) / float64(max(sizeA, sizeB))
	if ratio < t.sizeRatioThreshold {
		t.sink.RecordTreeComparison(sizeA, sizeB, ratio, true)
		return ratio
	}

	origins := newProvenance(leavesA, leavesB)
	union := make([]model.ContentNode, 0, sizeA+sizeB)
	union = append(union, leavesA...)
	union = append(union, leavesB...)

	score := origins.tally(t.leaves.Cluster(union, t.leafThreshold)).score()
	t.sink.RecordTreeComparison(sizeA, sizeB, score, false)
	return score
}

// SubtreeSimilarity compares two single subtrees.
func (t *TreeComparator) SubtreeSimilarity(a, b *model.SubtreeNode) float64 {
	return t.Similarity(model.SingleRegion(a), model.SingleRegion(b))
}
