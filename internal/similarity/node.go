package similarity

import "github.com/rohmanhakim/record-finder/internal/model"

// Weights of the per-type aggregates. The data-type term always scores 1
// because mismatched types never reach the aggregates.
type Weights struct {
	DataType          float64
	Content           float64
	TagPath           float64
	PresentationStyle float64
	RectangleSize     float64
}

func DefaultWeights() Weights {
	return Weights{
		DataType:          1,
		Content:           0.64,
		TagPath:           0.48,
		PresentationStyle: 0.81,
		RectangleSize:     0.81,
	}
}

// Scorer combines attribute metrics into node similarity.
type Scorer struct {
	weights        Weights
	textTotal      float64
	hyperlinkTotal float64
	imageTotal     float64
}

func NewScorer(weights Weights) Scorer {
	styled := weights.DataType + weights.Content + weights.TagPath + weights.PresentationStyle
	return Scorer{
		weights:        weights,
		textTotal:      styled,
		hyperlinkTotal: styled,
		imageTotal:     weights.DataType + weights.Content + weights.TagPath + weights.RectangleSize,
	}
}

func (s Scorer) Weights() Weights {
	return s.weights
}

func (s Scorer) Text(a, b *model.TextNode) float64 {
	total := s.weights.DataType +
		CosineSimilarity(a, b)*s.weights.Content +
		TagPathSimilarity(a.TagPath(), b.TagPath())*s.weights.TagPath +
		PresentationStyleSimilarity(a.PresentationStyle(), b.PresentationStyle())*s.weights.PresentationStyle
	return total / s.textTotal
}

func (s Scorer) Hyperlink(a, b *model.HyperlinkNode) float64 {
	total := s.weights.DataType +
		URLSimilarity(a.Href, b.Href)*s.weights.Content +
		TagPathSimilarity(a.TagPath(), b.TagPath())*s.weights.TagPath +
		PresentationStyleSimilarity(a.PresentationStyle(), b.PresentationStyle())*s.weights.PresentationStyle
	return total / s.hyperlinkTotal
}

func (s Scorer) Image(a, b *model.ImageNode) float64 {
	total := s.weights.DataType +
		URLSimilarity(a.Src, b.Src)*s.weights.Content +
		TagPathSimilarity(a.TagPath(), b.TagPath())*s.weights.TagPath +
		RectangleSizeSimilarity(a.Size, b.Size)*s.weights.RectangleSize
	return total / s.imageTotal
}

// Element nodes only compare tag names.
func (s Scorer) Element(a, b *model.ElementNode) float64 {
	if a.TagName == b.TagName {
		return 1
	}
	return 0
}

// Node dispatches on the variant. Different data types and nil nodes score 0.
func (s Scorer) Node(a, b model.ContentNode) float64 {
	if a == nil || b == nil || a.DataType() != b.DataType() {
		return 0
	}

	switch x := a.(type) {
	case *model.TextNode:
		if y, ok := b.(*model.TextNode); ok && x != nil && y != nil {
			return s.Text(x, y)
		}
	case *model.HyperlinkNode:
		if y, ok := b.(*model.HyperlinkNode); ok && x != nil && y != nil {
			return s.Hyperlink(x, y)
		}
	case *model.ImageNode:
		if y, ok := b.(*model.ImageNode); ok && x != nil && y != nil {
			return s.Image(x, y)
		}
	case *model.ElementNode:
		if y, ok := b.(*model.ElementNode); ok && x != nil && y != nil {
			return s.Element(x, y)
		}
	}
	return 0
}

var defaultScorer = NewScorer(DefaultWeights())

// NodeSimilarity scores two content nodes with the default weights.
func NodeSimilarity(a, b model.ContentNode) float64 {
	return defaultScorer.Node(a, b)
}
