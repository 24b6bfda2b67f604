package cluster

// DefaultMaxEntities caps the input size the engine will merge.
// Larger inputs come back as unmerged singletons: the O(n²) neighbour
// initialisation and repeated cluster-pair scans are traded for precision.
const DefaultMaxEntities = 100

// Cluster is a non-empty ordered group of entities.
type Cluster[T any] []T

// SimilarityFunc scores two entities in [0,1].
type SimilarityFunc[T any] func(a, b T) float64

// ClusterSimilarityFunc scores two clusters from their members' pairwise similarity.
type ClusterSimilarityFunc[T any] func(c1, c2 Cluster[T], leafSim SimilarityFunc[T]) float64

type Params struct {
	// Merging stops once the best remaining pair scores at or below Threshold.
	Threshold float64
	// Inputs larger than MaxEntities are returned as singletons.
	// Zero or negative means DefaultMaxEntities.
	MaxEntities int
}

type Result[T any] struct {
	Clusters []Cluster[T]
	// Merges is the number of merge rounds performed.
	Merges int
	// Capped is set when the input exceeded MaxEntities and was not merged.
	Capped bool
}

// record is one active cluster together with its nearest-neighbour pointer.
// Cluster, neighbour and similarity always change together.
type record[T any] struct {
	// id identifies the current member set for cluster-pair memoization;
	// a merged survivor gets a fresh id.
	id         int
	members    Cluster[T]
	neighbor   *record[T]
	similarity float64
}
