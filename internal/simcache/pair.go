package simcache

// PairCache memoizes a symmetric similarity keyed by an unordered pair of
// entity identities.
//
// Entries are append-only: a value is never recomputed or overwritten for
// the lifetime of the cache, because the features it was computed from are
// immutable for one session. Call Reset between documents.
//
// PairCache is not safe for concurrent use. Population is read-check-then-write
// and assumes a single writer per session.
type PairCache[K comparable] struct {
	data   map[pairKey[K]]float64
	hits   int
	misses int
}

type pairKey[K comparable] struct {
	first  K
	second K
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

func NewPairCache[K comparable]() *PairCache[K] {
	return &PairCache[K]{
		data: make(map[pairKey[K]]float64),
	}
}

// Get returns the cached similarity of {a, b}, computing and storing it on
// first use. A self pair is computed every time and never stored.
func (c *PairCache[K]) Get(a, b K, compute func(a, b K) float64) float64 {
	if a == b {
		return compute(a, b)
	}

	if value, found := c.Lookup(a, b); found {
		c.hits++
		return value
	}

	c.misses++
	value := compute(a, b)
	c.data[pairKey[K]{first: a, second: b}] = value
	return value
}

// Lookup returns the stored similarity under either ordering without computing.
func (c *PairCache[K]) Lookup(a, b K) (float64, bool) {
	if value, exists := c.data[pairKey[K]{first: a, second: b}]; exists {
		return value, true
	}
	value, exists := c.data[pairKey[K]{first: b, second: a}]
	return value, exists
}

// Len returns the number of stored unordered pairs.
func (c *PairCache[K]) Len() int {
	return len(c.data)
}

func (c *PairCache[K]) Stats() Stats {
	return Stats{
		Entries: len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// Reset drops every entry and counter.
func (c *PairCache[K]) Reset() {
	c.data = make(map[pairKey[K]]float64)
	c.hits = 0
	c.misses = 0
}
