package session

// Stats is a snapshot of the session caches.
type Stats struct {
	// NodePairs is the number of memoized content node pairs.
	NodePairs     int
	NodeCacheHits int
	// TreePairs is the number of memoized subtree pairs.
	TreePairs     int
	TreeCacheHits int
	// TreeClusterSets is the number of parents with a stored subtree clustering.
	TreeClusterSets int
	TreeClusterHits int
}
