package region

import (
	"time"

	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
)

/*
LeafClusterer groups content nodes into clusters of similar leaves.

Nodes are partitioned by data type first; cross-type similarity is 0, so a
cluster never mixes data types. Each partition is clustered on its own and
the results are concatenated text, hyperlink, image, element.

The size cap applies per partition.
*/
type LeafClusterer struct {
	similarity  cluster.SimilarityFunc[model.ContentNode]
	maxEntities int
	sink        metadata.MetadataSink
}

func NewLeafClusterer(
	similarity cluster.SimilarityFunc[model.ContentNode],
	maxEntities int,
	sink metadata.MetadataSink,
) *LeafClusterer {
	return &LeafClusterer{
		similarity:  similarity,
		maxEntities: maxEntities,
		sink:        sink,
	}
}

func (l *LeafClusterer) Cluster(nodes []model.ContentNode, threshold float64) []cluster.Cluster[model.ContentNode] {
	partitions := make(map[model.DataType][]model.ContentNode, len(model.DataTypes))
	for _, node := range nodes {
		key := partitionOf(node)
		partitions[key] = append(partitions[key], node)
	}

	engine := cluster.New(l.similarity, cluster.AverageLink[model.ContentNode], cluster.Params{
		Threshold:   threshold,
		MaxEntities: l.maxEntities,
	})

	var clusters []cluster.Cluster[model.ContentNode]
	for _, dataType := range model.DataTypes {
		members := partitions[dataType]
		if len(members) == 0 {
			continue
		}

		start := time.Now()
		result := engine.Run(members)
		l.sink.RecordClusterRun(
			dataType.String(),
			len(members),
			len(result.Clusters),
			result.Merges,
			result.Capped,
			time.Since(start),
		)
		clusters = append(clusters, result.Clusters...)
	}
	return clusters
}

// partitionOf places anything that is not text, hyperlink or image with the elements.
func partitionOf(node model.ContentNode) model.DataType {
	switch dataType := node.DataType(); dataType {
	case model.DataTypeText, model.DataTypeHyperlink, model.DataTypeImage:
		return dataType
	default:
		return model.DataTypeElement
	}
}
