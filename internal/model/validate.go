package model

import (
	"fmt"
	"math"
)

// Validate checks that node carries the features its data type requires.
func Validate(node ContentNode) *PreconditionError {
	if node == nil {
		return &PreconditionError{
			Message: "content node is nil",
			Cause:   ErrCauseNilNode,
		}
	}

	switch n := node.(type) {
	case *TextNode:
		if n == nil {
			return nilVariant(node)
		}
		if n.TermFrequency == nil {
			return missing(n.ID(), "text node has no term frequency vector")
		}
		if n.Norm < 0 || !finite(n.Norm) {
			return invalid(n.ID(), fmt.Sprintf("norm %v is negative or not finite", n.Norm))
		}
		for term, f := range n.TermFrequency {
			if f < 0 || !finite(f) {
				return invalid(n.ID(), fmt.Sprintf("frequency %v of term %q is negative or not finite", f, term))
			}
		}
	case *HyperlinkNode:
		if n == nil {
			return nilVariant(node)
		}
	case *ImageNode:
		if n == nil {
			return nilVariant(node)
		}
		if n.Size.Width < 0 || n.Size.Height < 0 {
			return invalid(n.ID(), fmt.Sprintf("negative rectangle size %vx%v", n.Size.Width, n.Size.Height))
		}
	case *ElementNode:
		if n == nil {
			return nilVariant(node)
		}
		if n.TagName == "" {
			return missing(n.ID(), "element node has no tag name")
		}
	default:
		return invalid(node.ID(), fmt.Sprintf("unsupported content node type %T", node))
	}
	return nil
}

// ValidateAll returns the first violation in nodes, if any.
func ValidateAll(nodes []ContentNode) *PreconditionError {
	for _, node := range nodes {
		if err := Validate(node); err != nil {
			return err
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nilVariant(node ContentNode) *PreconditionError {
	return &PreconditionError{
		Message: fmt.Sprintf("content node %T is a nil pointer", node),
		Cause:   ErrCauseNilNode,
	}
}

func missing(id, msg string) *PreconditionError {
	return &PreconditionError{
		Message: msg,
		Cause:   ErrCauseMissingFeature,
		NodeID:  id,
	}
}

func invalid(id, msg string) *PreconditionError {
	return &PreconditionError{
		Message: msg,
		Cause:   ErrCauseInvalidFeature,
		NodeID:  id,
	}
}
