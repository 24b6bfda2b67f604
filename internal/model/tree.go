package model

/*
SubtreeNode is a node of the document hierarchy.

Invariants
- parent is a weak back-reference set by AppendChild; the parent owns its children
- a node either carries content (a leaf) or children, never both
*/
type SubtreeNode struct {
	label    string
	parent   *SubtreeNode
	children []*SubtreeNode
	content  ContentNode
}

// NewSubtreeNode creates an inner node. label is informational (usually the tag name).
func NewSubtreeNode(label string) *SubtreeNode {
	return &SubtreeNode{label: label}
}

// NewLeafSubtree wraps a content node as a tree leaf. A nil content yields an
// empty inner node that contributes no leaves.
func NewLeafSubtree(content ContentNode) *SubtreeNode {
	if content == nil {
		return &SubtreeNode{}
	}
	return &SubtreeNode{
		label:   content.DataType().String(),
		content: content,
	}
}

func (s *SubtreeNode) Label() string {
	return s.label
}

func (s *SubtreeNode) Parent() *SubtreeNode {
	return s.parent
}

func (s *SubtreeNode) Children() []*SubtreeNode {
	return s.children
}

func (s *SubtreeNode) ChildCount() int {
	return len(s.children)
}

// Content returns the wrapped content node, or nil for inner nodes.
func (s *SubtreeNode) Content() ContentNode {
	return s.content
}

func (s *SubtreeNode) IsLeaf() bool {
	return s.content != nil
}

// AppendChild attaches child as the last child of s and points its parent at s.
// Appending to a leaf is ignored.
func (s *SubtreeNode) AppendChild(child *SubtreeNode) {
	if s.content != nil || child == nil {
		return
	}
	child.parent = s
	s.children = append(s.children, child)
}

// LeafNodes returns the content nodes at the fringe of s in document order.
func (s *SubtreeNode) LeafNodes() []ContentNode {
	var leaves []ContentNode
	s.collectLeaves(&leaves)
	return leaves
}

func (s *SubtreeNode) collectLeaves(acc *[]ContentNode) {
	if s.content != nil {
		*acc = append(*acc, s.content)
		return
	}
	for _, child := range s.children {
		child.collectLeaves(acc)
	}
}

// Region is a candidate record unit: one subtree or a run of sibling subtrees.
type Region []*SubtreeNode

func SingleRegion(node *SubtreeNode) Region {
	return Region{node}
}

// LeafNodes flattens the fringe of every subtree in order.
func (r Region) LeafNodes() []ContentNode {
	var leaves []ContentNode
	for _, node := range r {
		if node != nil {
			node.collectLeaves(&leaves)
		}
	}
	return leaves
}
