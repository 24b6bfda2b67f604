package features

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/record-finder/internal/model"
	"golang.org/x/net/html"
)

/*
Document is the content tree built from one HTML source.

It keeps both directions of the DOM index so callers can select
regions with CSS selectors and map clusters back to markup.
The tree is read-only once Extract returns.
*/
type Document struct {
	source    string
	root      *html.Node
	container *html.Node
	tree      *model.SubtreeNode
	subtrees  map[*html.Node]*model.SubtreeNode
	elements  map[*model.SubtreeNode]*html.Node
}

func (d Document) Source() string {
	return d.source
}

// Root returns the parsed document node.
func (d Document) Root() *html.Node {
	return d.root
}

// Container returns the element the content tree was built from.
func (d Document) Container() *html.Node {
	return d.container
}

// Tree returns the content tree rooted at the container.
func (d Document) Tree() *model.SubtreeNode {
	return d.tree
}

func (d Document) ContentNodes() []model.ContentNode {
	if d.tree == nil {
		return nil
	}
	return d.tree.LeafNodes()
}

// Subtree returns the content subtree built for an element, or nil when
// the element carried no content.
func (d Document) Subtree(n *html.Node) *model.SubtreeNode {
	return d.subtrees[n]
}

// HTMLNode returns the element a subtree was built from. Leaf subtrees
// wrapping text have no element of their own and return nil.
func (d Document) HTMLNode(s *model.SubtreeNode) *html.Node {
	return d.elements[s]
}

// Select returns, in document order, the subtrees of every element matching
// selector within the container, the container included. Matches without
// content are skipped.
func (d Document) Select(selector string) model.Region {
	if d.container == nil {
		return nil
	}
	var region model.Region
	add := func(n *html.Node) {
		if subtree := d.subtrees[n]; subtree != nil {
			region = append(region, subtree)
		}
	}

	root := goquery.NewDocumentFromNode(d.container).Selection
	if root.Is(selector) {
		add(d.container)
	}
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		add(s.Nodes[0])
	})
	return region
}

// Path describes where a subtree sits in the markup, e.g. "body/ul/li[2]".
// Positions count element siblings of the same tag and start at 1.
func (d Document) Path(s *model.SubtreeNode) string {
	n := d.elements[s]
	if n == nil && s != nil && s.Parent() != nil {
		n = d.elements[s.Parent()]
	}
	if n == nil {
		return ""
	}

	var steps []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		step := cur.Data
		if pos, total := siblingPosition(cur); total > 1 {
			step += "[" + strconv.Itoa(pos) + "]"
		}
		steps = append(steps, step)
		if cur == d.container {
			break
		}
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return strings.Join(steps, "/")
}

// Text returns the visible text under a subtree's element, one space
// between text runs.
func (d Document) Text(s *model.SubtreeNode) string {
	n := d.elements[s]
	if n == nil {
		return ""
	}
	var runs []string
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode && noiseTags[cur.Data] {
			return
		}
		if cur.Type == html.TextNode {
			runs = append(runs, strings.Fields(cur.Data)...)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(runs, " ")
}

func siblingPosition(n *html.Node) (int, int) {
	if n.Parent == nil {
		return 1, 1
	}
	pos, total := 0, 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != n.Data {
			continue
		}
		total++
		if c == n {
			pos = total
		}
	}
	return pos, total
}
