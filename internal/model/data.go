package model

import (
	"math"
	"net/url"
)

// DataType tags the four content node variants.
type DataType int

const (
	DataTypeText DataType = iota
	DataTypeHyperlink
	DataTypeImage
	DataTypeElement
)

// DataTypes lists every variant in partition order.
var DataTypes = []DataType{DataTypeText, DataTypeHyperlink, DataTypeImage, DataTypeElement}

func (d DataType) String() string {
	switch d {
	case DataTypeText:
		return "text"
	case DataTypeHyperlink:
		return "hyperlink"
	case DataTypeImage:
		return "image"
	case DataTypeElement:
		return "element"
	default:
		return "unknown"
	}
}

/*
ContentNode is a leaf unit of content.

Variants are pointers to TextNode, HyperlinkNode, ImageNode or ElementNode;
interface values compare by pointer identity, so a node can key a map.
Feature fields are populated by the extraction collaborator and are
read-only for the rest of the pipeline.
*/
type ContentNode interface {
	ID() string
	DataType() DataType
	TagPath() []string
	PresentationStyle() map[string]string
}

type nodeBase struct {
	id                string
	tagPath           []string
	presentationStyle map[string]string
}

func (n *nodeBase) ID() string {
	return n.id
}

func (n *nodeBase) TagPath() []string {
	return n.tagPath
}

func (n *nodeBase) PresentationStyle() map[string]string {
	return n.presentationStyle
}

type TextNode struct {
	nodeBase
	TermFrequency map[string]float64
	Norm          float64
}

func NewTextNode(
	id string,
	tagPath []string,
	presentationStyle map[string]string,
	termFrequency map[string]float64,
) *TextNode {
	return &TextNode{
		nodeBase: nodeBase{
			id:                id,
			tagPath:           tagPath,
			presentationStyle: presentationStyle,
		},
		TermFrequency: termFrequency,
		Norm:          VectorNorm(termFrequency),
	}
}

func (n *TextNode) DataType() DataType {
	return DataTypeText
}

type HyperlinkNode struct {
	nodeBase
	// Href is nil when the anchor carries no usable URL.
	Href *url.URL
}

func NewHyperlinkNode(
	id string,
	tagPath []string,
	presentationStyle map[string]string,
	href *url.URL,
) *HyperlinkNode {
	return &HyperlinkNode{
		nodeBase: nodeBase{
			id:                id,
			tagPath:           tagPath,
			presentationStyle: presentationStyle,
		},
		Href: href,
	}
}

func (n *HyperlinkNode) DataType() DataType {
	return DataTypeHyperlink
}

type RectangleSize struct {
	Width  float64
	Height float64
}

type ImageNode struct {
	nodeBase
	// Src is nil when the image carries no usable URL.
	Src  *url.URL
	Size RectangleSize
}

func NewImageNode(
	id string,
	tagPath []string,
	presentationStyle map[string]string,
	src *url.URL,
	size RectangleSize,
) *ImageNode {
	return &ImageNode{
		nodeBase: nodeBase{
			id:                id,
			tagPath:           tagPath,
			presentationStyle: presentationStyle,
		},
		Src:  src,
		Size: size,
	}
}

func (n *ImageNode) DataType() DataType {
	return DataTypeImage
}

type ElementNode struct {
	nodeBase
	TagName string
}

func NewElementNode(
	id string,
	tagPath []string,
	presentationStyle map[string]string,
	tagName string,
) *ElementNode {
	return &ElementNode{
		nodeBase: nodeBase{
			id:                id,
			tagPath:           tagPath,
			presentationStyle: presentationStyle,
		},
		TagName: tagName,
	}
}

func (n *ElementNode) DataType() DataType {
	return DataTypeElement
}

// VectorNorm returns the Euclidean norm of a term-frequency vector.
func VectorNorm(termFrequency map[string]float64) float64 {
	var sum float64
	for _, f := range termFrequency {
		sum += f * f
	}
	return math.Sqrt(sum)
}
