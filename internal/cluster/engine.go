package cluster

import (
	"math"

	"github.com/rohmanhakim/record-finder/internal/simcache"
)

/*
Engine performs average-link agglomerative clustering.

Algorithm
  - one singleton per entity
  - nearest neighbour of every singleton from all entity pairs
  - repeat: merge the pair with the greatest neighbour similarity while it
    exceeds the threshold
  - after a merge only the survivor and the clusters that pointed at either
    merged cluster recompute their neighbour; every other pointer stays valid
    because an average-link merge never raises a similarity above the larger
    of the two similarities it replaces

Engine is stateless between runs and holds no caches of its own beyond one run.
*/
type Engine[T any] struct {
	leafSim    SimilarityFunc[T]
	clusterSim ClusterSimilarityFunc[T]
	params     Params
}

func New[T any](
	leafSim SimilarityFunc[T],
	clusterSim ClusterSimilarityFunc[T],
	params Params,
) *Engine[T] {
	if clusterSim == nil {
		clusterSim = AverageLink[T]
	}
	if params.MaxEntities <= 0 {
		params.MaxEntities = DefaultMaxEntities
	}
	return &Engine[T]{
		leafSim:    leafSim,
		clusterSim: clusterSim,
		params:     params,
	}
}

func (e *Engine[T]) Params() Params {
	return e.params
}

// AverageLink is the mean of all cross-member similarities.
// Cost is proportional to len(c1)*len(c2).
func AverageLink[T any](c1, c2 Cluster[T], leafSim SimilarityFunc[T]) float64 {
	if len(c1) == 0 || len(c2) == 0 {
		return 0
	}
	var sum float64
	for _, a := range c1 {
		for _, b := range c2 {
			sum += leafSim(a, b)
		}
	}
	return sum / float64(len(c1)*len(c2))
}

// Run clusters entities. The result preserves the input order of the
// surviving clusters, and each cluster lists its members in merge order.
func (e *Engine[T]) Run(entities []T) Result[T] {
	records := make([]*record[T], len(entities))
	for i, entity := range entities {
		records[i] = &record[T]{
			id:         i,
			members:    Cluster[T]{entity},
			similarity: math.Inf(-1),
		}
	}

	if len(entities) <= 1 || len(entities) > e.params.MaxEntities {
		return Result[T]{
			Clusters: collect(records),
			Capped:   len(entities) > e.params.MaxEntities,
		}
	}

	e.initNeighbors(entities, records)

	memo := simcache.NewPairCache[int]()
	nextID := len(entities)
	merges := 0

	for len(records) > 1 {
		best := pickBest(records)
		if best == nil || best.neighbor == nil || best.similarity <= e.params.Threshold {
			break
		}

		survivor, absorbed := best, best.neighbor
		survivor.members = append(survivor.members, absorbed.members...)
		survivor.id = nextID
		nextID++
		records = remove(records, absorbed)
		merges++

		var affected []*record[T]
		for _, r := range records {
			if r == survivor || r.neighbor == survivor || r.neighbor == absorbed {
				affected = append(affected, r)
			}
		}
		for _, r := range affected {
			e.refreshNeighbor(r, records, memo)
		}
	}

	return Result[T]{
		Clusters: collect(records),
		Merges:   merges,
	}
}

// initNeighbors evaluates every entity pair once and points each singleton
// at its most similar peer. Ties resolve to the earliest peer.
func (e *Engine[T]) initNeighbors(entities []T, records []*record[T]) {
	n := len(entities)
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
	}
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			s := e.leafSim(entities[i], entities[j])
			sims[i][j] = s
			sims[j][i] = s
		}
	}

	for i, r := range records {
		for j, peer := range records {
			if i != j && sims[i][j] > r.similarity {
				r.similarity = sims[i][j]
				r.neighbor = peer
			}
		}
	}
}

func (e *Engine[T]) refreshNeighbor(r *record[T], active []*record[T], memo *simcache.PairCache[int]) {
	r.neighbor = nil
	r.similarity = math.Inf(-1)
	for _, peer := range active {
		if peer == r {
			continue
		}
		s := memo.Get(r.id, peer.id, func(int, int) float64 {
			return e.clusterSim(r.members, peer.members, e.leafSim)
		})
		if s > r.similarity {
			r.similarity = s
			r.neighbor = peer
		}
	}
}

// pickBest returns the record holding the globally greatest neighbour similarity.
func pickBest[T any](records []*record[T]) *record[T] {
	var best *record[T]
	for _, r := range records {
		if r.neighbor == nil {
			continue
		}
		if best == nil || r.similarity > best.similarity {
			best = r
		}
	}
	return best
}

func remove[T any](records []*record[T], target *record[T]) []*record[T] {
	for i, r := range records {
		if r == target {
			return append(records[:i], records[i+1:]...)
		}
	}
	return records
}

func collect[T any](records []*record[T]) []Cluster[T] {
	clusters := make([]Cluster[T], len(records))
	for i, r := range records {
		clusters[i] = r.members
	}
	return clusters
}
