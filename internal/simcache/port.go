package simcache

// Memo is the port the clustering code memoizes pairwise similarity through.
// Implementations must treat (a, b) and (b, a) as the same entry and invoke
// compute at most once per unordered pair.
type Memo[K comparable] interface {
	Get(a, b K, compute func(a, b K) float64) float64
}

// Compile-time interface check
var _ Memo[string] = (*PairCache[string])(nil)
