package report

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/features"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/hashutil"
	"golang.org/x/net/html"
)

/*
Build Rules
- Clusters are ordered by size, largest first; ties keep engine order
- Members keep the order the engine produced
- Cluster ids derive from member ids, so equal groupings of one document get equal ids
- Member markup is converted from a rendered copy; the document is never mutated
*/

// PreviewLength caps member previews, in runes.
const PreviewLength = 80

type Builder struct {
	metadataSink metadata.MetadataSink
	converter    *converter.Converter
}

func NewBuilder(metadataSink metadata.MetadataSink) *Builder {
	return &Builder{
		metadataSink: metadataSink,
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Subtrees builds a report over subtree clusters of doc.
func (b *Builder) Subtrees(
	doc features.Document,
	threshold float64,
	clusters []cluster.Cluster[*model.SubtreeNode],
) (Report, failure.ClassifiedError) {
	report := Report{
		Source:    doc.Source(),
		Mode:      ModeSubtrees,
		Threshold: threshold,
	}
	for _, c := range clusters {
		members := make([]Member, 0, len(c))
		for _, s := range c {
			member, err := b.subtreeMember(doc, s)
			if err != nil {
				var reportError *ReportError
				errors.As(err, &reportError)
				b.metadataSink.RecordError(
					time.Now(),
					"report",
					"Builder.Subtrees",
					mapReportErrorToMetadataCause(reportError),
					err.Error(),
					[]metadata.Attribute{
						metadata.NewAttr(metadata.AttrSource, doc.Source()),
						metadata.NewAttr(metadata.AttrSelector, member.Path),
					},
				)
				return Report{}, reportError
			}
			members = append(members, member)
		}
		report.Clusters = append(report.Clusters, newCluster(members))
	}
	sortClusters(report.Clusters)
	return report, nil
}

// Leaves builds a report over content node clusters.
func (b *Builder) Leaves(
	source string,
	threshold float64,
	clusters []cluster.Cluster[model.ContentNode],
) Report {
	report := Report{
		Source:    source,
		Mode:      ModeLeaves,
		Threshold: threshold,
	}
	for _, c := range clusters {
		members := make([]Member, 0, len(c))
		for _, node := range c {
			tagPath := node.TagPath()
			tag := ""
			if len(tagPath) > 0 {
				tag = tagPath[len(tagPath)-1]
			}
			members = append(members, Member{
				ID:      node.ID(),
				Path:    strings.Join(tagPath, "/"),
				Tag:     tag,
				Leaves:  1,
				Preview: truncate(leafPreview(node)),
			})
		}
		report.Clusters = append(report.Clusters, newCluster(members))
	}
	sortClusters(report.Clusters)
	return report
}

func (b *Builder) subtreeMember(doc features.Document, s *model.SubtreeNode) (Member, error) {
	path := doc.Path(s)
	member := Member{
		ID:     hashutil.ShortID(doc.Source(), path),
		Path:   path,
		Tag:    s.Label(),
		Leaves: len(s.LeafNodes()),
	}

	n := doc.HTMLNode(s)
	if n == nil {
		if content := s.Content(); content != nil {
			member.Preview = truncate(leafPreview(content))
		}
		return member, nil
	}
	member.Preview = truncate(doc.Text(s))

	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return member, &ReportError{
			Message:   fmt.Sprintf("render %s: %v", path, err),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	markdown, err := b.converter.ConvertString(buf.String())
	if err != nil {
		return member, &ReportError{
			Message:   fmt.Sprintf("convert %s: %v", path, err),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	member.Markdown = strings.TrimSpace(markdown)
	return member, nil
}

func newCluster(members []Member) Cluster {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return Cluster{
		ID:      hashutil.ShortID(ids...),
		Size:    len(members),
		Members: members,
	}
}

func sortClusters(clusters []Cluster) {
	slices.SortStableFunc(clusters, func(a, b Cluster) int {
		return b.Size - a.Size
	})
}

func leafPreview(node model.ContentNode) string {
	switch n := node.(type) {
	case *model.TextNode:
		terms := make([]string, 0, len(n.TermFrequency))
		for term := range n.TermFrequency {
			terms = append(terms, term)
		}
		slices.Sort(terms)
		return strings.Join(terms, " ")
	case *model.HyperlinkNode:
		if n.Href != nil {
			return n.Href.String()
		}
	case *model.ImageNode:
		if n.Src != nil {
			return n.Src.String()
		}
	case *model.ElementNode:
		return "<" + n.TagName + ">"
	}
	return ""
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewLength {
		return s
	}
	return string(runes[:PreviewLength-1]) + "…"
}
