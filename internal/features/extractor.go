package features

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/hashutil"
	"github.com/rohmanhakim/record-finder/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse static HTML into a DOM tree
- Locate the container the caller wants analysed
- Turn the container into a content tree whose leaves carry features

Leaf Rules
- Text runs become text nodes (lower-cased term frequencies)
- Text inside <a href> becomes hyperlink nodes
- <img> becomes an image node
- Widgets become element nodes and are not descended into
- Elements without any leaf below them are dropped

Feature values are computed once here and are read-only afterwards.
*/

// DefaultContainerSelector is used when the caller passes an empty selector.
const DefaultContainerSelector = "body"

// Elements whose content never reaches the reader.
var noiseTags = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"link":     true,
	"meta":     true,
	"base":     true,
	"title":    true,
}

var widgetTags = map[string]bool{
	"input":    true,
	"button":   true,
	"select":   true,
	"textarea": true,
	"iframe":   true,
	"video":    true,
	"audio":    true,
	"canvas":   true,
	"svg":      true,
	"hr":       true,
	"embed":    true,
	"object":   true,
}

type Extractor struct {
	metadataSink metadata.MetadataSink
	baseURL      *url.URL
}

// NewExtractor creates an extractor. baseURL resolves relative href and src
// values and may be nil.
func NewExtractor(
	metadataSink metadata.MetadataSink,
	baseURL *url.URL,
) Extractor {
	return Extractor{
		metadataSink: metadataSink,
		baseURL:      baseURL,
	}
}

func (e *Extractor) Extract(
	source string,
	htmlBytes []byte,
	containerSelector string,
) (Document, failure.ClassifiedError) {
	doc, err := e.extract(source, htmlBytes, containerSelector)
	if err != nil {
		var extractionError *ExtractionError
		errors.As(err, &extractionError)
		e.metadataSink.RecordError(
			time.Now(),
			"features",
			"Extractor.Extract",
			mapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSource, source),
				metadata.NewAttr(metadata.AttrSelector, containerSelector),
			},
		)
		return Document{}, extractionError
	}
	return doc, nil
}

func (e *Extractor) extract(source string, htmlBytes []byte, containerSelector string) (Document, error) {
	if !bytes.ContainsRune(htmlBytes, '<') {
		return Document{}, &ExtractionError{
			Message:   "input contains no markup",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	root, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return Document{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	if strings.TrimSpace(containerSelector) == "" {
		containerSelector = DefaultContainerSelector
	}
	match := goquery.NewDocumentFromNode(root).Find(containerSelector).First()
	if match.Length() == 0 {
		return Document{}, &ExtractionError{
			Message:   fmt.Sprintf("no element matches %q", containerSelector),
			Retryable: false,
			Cause:     ErrCauseSelectorNotFound,
		}
	}
	container := match.Nodes[0]

	b := newTreeBuilder(e.baseURL)
	path, style := b.ancestry(container)
	tree := b.build(container, path, style, nil, false)
	if tree == nil {
		return Document{}, &ExtractionError{
			Message:   fmt.Sprintf("%q has no text, links, images or widgets", containerSelector),
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}

	return Document{
		source:    source,
		root:      root,
		container: container,
		tree:      tree,
		subtrees:  b.subtrees,
		elements:  b.elements,
	}, nil
}

type treeBuilder struct {
	baseURL  *url.URL
	ordinal  int
	subtrees map[*html.Node]*model.SubtreeNode
	elements map[*model.SubtreeNode]*html.Node
}

func newTreeBuilder(baseURL *url.URL) *treeBuilder {
	return &treeBuilder{
		baseURL:  baseURL,
		subtrees: map[*html.Node]*model.SubtreeNode{},
		elements: map[*model.SubtreeNode]*html.Node{},
	}
}

// ancestry returns the tag path and resolved style of n's parent element.
func (b *treeBuilder) ancestry(n *html.Node) ([]string, computedStyle) {
	var chain []*html.Node
	for cur := n.Parent; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		chain = append(chain, cur)
	}
	slices.Reverse(chain)

	path := make([]string, 0, len(chain))
	style := rootStyle()
	for _, el := range chain {
		path = append(path, el.Data)
		style = style.resolve(el)
	}
	return path, style
}

// build returns the content subtree of element n, or nil when nothing
// below n yields a leaf. path and parentStyle describe n's parent.
func (b *treeBuilder) build(
	n *html.Node,
	path []string,
	parentStyle computedStyle,
	href *url.URL,
	inLink bool,
) *model.SubtreeNode {
	if noiseTags[n.Data] {
		return nil
	}

	tagPath := append(slices.Clone(path), n.Data)
	style := parentStyle.resolve(n)

	switch {
	case widgetTags[n.Data]:
		return b.leaf(n, model.NewElementNode(b.nextID(tagPath), tagPath, style, n.Data))
	case n.Data == "img":
		src := urlutil.Resolve(b.baseURL, attr(n, "src"))
		return b.leaf(n, model.NewImageNode(b.nextID(tagPath), tagPath, style, src, imageSize(n)))
	case n.Data == "a" && hasAttr(n, "href"):
		href = urlutil.Resolve(b.baseURL, attr(n, "href"))
		inLink = true
	}

	subtree := model.NewSubtreeNode(n.Data)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			subtree.AppendChild(b.build(c, tagPath, style, href, inLink))
		case html.TextNode:
			tf := TermFrequency(c.Data)
			if tf == nil {
				continue
			}
			var content model.ContentNode
			if inLink {
				content = model.NewHyperlinkNode(b.nextID(tagPath), tagPath, style, href)
			} else {
				content = model.NewTextNode(b.nextID(tagPath), tagPath, style, tf)
			}
			subtree.AppendChild(model.NewLeafSubtree(content))
		}
	}
	if subtree.ChildCount() == 0 {
		return nil
	}

	b.subtrees[n] = subtree
	b.elements[subtree] = n
	return subtree
}

func (b *treeBuilder) leaf(n *html.Node, content model.ContentNode) *model.SubtreeNode {
	subtree := model.NewLeafSubtree(content)
	b.subtrees[n] = subtree
	b.elements[subtree] = n
	return subtree
}

// nextID derives a stable node id from the tag path and document order.
func (b *treeBuilder) nextID(tagPath []string) string {
	b.ordinal++
	return hashutil.ShortID(strings.Join(tagPath, "/"), strconv.Itoa(b.ordinal))
}

// imageSize reads width and height attributes, falling back to inline style.
// Values that are not plain pixel lengths count as 0.
func imageSize(n *html.Node) model.RectangleSize {
	inline := parseInlineStyle(attr(n, "style"))
	return model.RectangleSize{
		Width:  pixels(attr(n, "width"), inline["width"]),
		Height: pixels(attr(n, "height"), inline["height"]),
	}
}

func pixels(values ...string) float64 {
	for _, raw := range values {
		raw = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(raw)), "px")
		if raw == "" {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}
