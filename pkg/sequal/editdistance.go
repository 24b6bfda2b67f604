package sequal

// Costs describes the price of each edit operation.
// Substitution is consulted for every aligned pair, including equal elements,
// so it must return 0 when no edit is needed.
type Costs[T any] struct {
	Substitution func(a, b T) int
	Insertion    func(e T) int
	Deletion     func(e T) int
}

// UnitCosts returns the classic Levenshtein cost model: every edit costs 1.
func UnitCosts[T comparable]() Costs[T] {
	return Costs[T]{
		Substitution: func(a, b T) int {
			if a == b {
				return 0
			}
			return 1
		},
		Insertion: func(T) int { return 1 },
		Deletion:  func(T) int { return 1 },
	}
}

// EditDistance returns the minimum total cost of transforming a into b.
// Only two rows of the dynamic programming table are kept.
func EditDistance[T any](a, b []T, costs Costs[T]) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 1; j <= len(b); j++ {
		prev[j] = prev[j-1] + costs.Insertion(b[j-1])
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = prev[0] + costs.Deletion(a[i-1])
		for j := 1; j <= len(b); j++ {
			substitute := prev[j-1] + costs.Substitution(a[i-1], b[j-1])
			remove := prev[j] + costs.Deletion(a[i-1])
			insert := curr[j-1] + costs.Insertion(b[j-1])
			curr[j] = min(substitute, remove, insert)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
