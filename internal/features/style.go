package features

import (
	"maps"
	"strings"

	"golang.org/x/net/html"
)

// StyleKeys is the fixed key set of every presentation style map, plus StyleClass.
var StyleKeys = []string{
	"color",
	"background-color",
	"font-size",
	"font-weight",
	"font-style",
	"font-family",
	"text-decoration",
	"text-align",
	"display",
}

// StyleClass holds the class attribute of the nearest element.
const StyleClass = "class"

var defaultStyle = map[string]string{
	"color":            "black",
	"background-color": "transparent",
	"font-size":        "16px",
	"font-weight":      "400",
	"font-style":       "normal",
	"font-family":      "serif",
	"text-decoration":  "none",
	"text-align":       "start",
	"display":          "inline",
}

// Properties that reset on every element instead of flowing to descendants.
var nonInherited = map[string]bool{
	"background-color": true,
	"display":          true,
}

// Tag defaults a browser stylesheet would apply before inline styles.
var tagPresets = map[string]map[string]string{
	"a":          {"color": "blue", "text-decoration": "underline"},
	"b":          {"font-weight": "700"},
	"strong":     {"font-weight": "700"},
	"i":          {"font-style": "italic"},
	"em":         {"font-style": "italic"},
	"cite":       {"font-style": "italic"},
	"u":          {"text-decoration": "underline"},
	"s":          {"text-decoration": "line-through"},
	"del":        {"text-decoration": "line-through"},
	"small":      {"font-size": "13.33px"},
	"code":       {"font-family": "monospace"},
	"kbd":        {"font-family": "monospace"},
	"samp":       {"font-family": "monospace"},
	"pre":        {"font-family": "monospace", "display": "block"},
	"h1":         {"font-size": "32px", "font-weight": "700", "display": "block"},
	"h2":         {"font-size": "24px", "font-weight": "700", "display": "block"},
	"h3":         {"font-size": "18.72px", "font-weight": "700", "display": "block"},
	"h4":         {"font-size": "16px", "font-weight": "700", "display": "block"},
	"h5":         {"font-size": "13.28px", "font-weight": "700", "display": "block"},
	"h6":         {"font-size": "10.72px", "font-weight": "700", "display": "block"},
	"th":         {"font-weight": "700", "text-align": "center", "display": "table-cell"},
	"td":         {"display": "table-cell"},
	"tr":         {"display": "table-row"},
	"table":      {"display": "table"},
	"li":         {"display": "list-item"},
	"center":     {"text-align": "center", "display": "block"},
	"img":        {"display": "inline-block"},
	"button":     {"display": "inline-block"},
	"input":      {"display": "inline-block"},
	"select":     {"display": "inline-block"},
	"textarea":   {"display": "inline-block"},
	"blockquote": {"display": "block"},
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "body": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "header": true, "html": true,
	"main": true, "nav": true, "ol": true, "p": true, "section": true, "ul": true,
}

var fontWeightNames = map[string]string{
	"normal": "400",
	"bold":   "700",
}

// computedStyle is the resolved style of one element. Leaves share the
// map of their nearest element, so it must not be mutated after resolve.
type computedStyle map[string]string

func rootStyle() computedStyle {
	return maps.Clone(defaultStyle)
}

// resolve derives the style of element n from its parent's style.
func (parent computedStyle) resolve(n *html.Node) computedStyle {
	style := make(computedStyle, len(StyleKeys)+1)
	for _, key := range StyleKeys {
		if nonInherited[key] {
			style[key] = defaultStyle[key]
			continue
		}
		style[key] = parent[key]
	}
	if blockTags[n.Data] {
		style["display"] = "block"
	}
	maps.Copy(style, tagPresets[n.Data])

	for key, value := range parseInlineStyle(attr(n, "style")) {
		if _, known := defaultStyle[key]; known {
			style[key] = value
		}
	}
	if weight, ok := fontWeightNames[style["font-weight"]]; ok {
		style["font-weight"] = weight
	}

	style[StyleClass] = strings.Join(strings.Fields(attr(n, "class")), " ")
	return style
}

// parseInlineStyle reads a style attribute into lower-cased declarations.
// Later declarations win; !important is dropped.
func parseInlineStyle(raw string) map[string]string {
	declarations := map[string]string{}
	for _, decl := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		value = strings.ToLower(strings.Join(strings.Fields(value), " "))
		if key == "" || value == "" || value == "inherit" {
			continue
		}
		declarations[key] = value
	}
	return declarations
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}
