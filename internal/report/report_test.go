package report_test

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/internal/features"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/internal/report"
	"github.com/rohmanhakim/record-finder/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<ul>
  <li><a href="/item/1">Red Shoe</a> <b>$10</b></li>
  <li><a href="/item/2">Blue Shoe</a> <b>$12</b></li>
</ul>
<form><input type="text"></form>
</body></html>`

func extract(t *testing.T) features.Document {
	t.Helper()
	ext := features.NewExtractor(&metadata.NoopSink{}, nil)
	doc, err := ext.Extract("listing.html", []byte(listingPage), "")
	require.Nil(t, err)
	return doc
}

func subtreeReport(t *testing.T) report.Report {
	t.Helper()
	doc := extract(t)
	items := doc.Select("li")
	forms := doc.Select("form")
	require.Len(t, items, 2)
	require.Len(t, forms, 1)

	builder := report.NewBuilder(&metadata.NoopSink{})
	r, err := builder.Subtrees(doc, 0.5, []cluster.Cluster[*model.SubtreeNode]{
		{forms[0]},
		{items[0], items[1]},
	})
	require.Nil(t, err)
	return r
}

func TestBuilder_Subtrees(t *testing.T) {
	r := subtreeReport(t)

	assert.Equal(t, "listing.html", r.Source)
	assert.Equal(t, report.ModeSubtrees, r.Mode)
	assert.Equal(t, 0.5, r.Threshold)
	require.Len(t, r.Clusters, 2)
	assert.Equal(t, 1, r.Repeated())

	// largest cluster first
	items := r.Clusters[0]
	assert.Equal(t, 2, items.Size)
	assert.True(t, items.Repeated())
	require.Len(t, items.Members, 2)

	first := items.Members[0]
	assert.Equal(t, "body/ul/li[1]", first.Path)
	assert.Equal(t, "li", first.Tag)
	assert.Equal(t, 2, first.Leaves)
	assert.Equal(t, "Red Shoe $10", first.Preview)
	assert.Equal(t, hashutil.ShortID("listing.html", "body/ul/li[1]"), first.ID)
	assert.Contains(t, first.Markdown, "[Red Shoe](/item/1)")
	assert.Contains(t, first.Markdown, "**$10**")

	assert.Equal(t, "body/ul/li[2]", items.Members[1].Path)
	assert.Equal(t, hashutil.ShortID(first.ID, items.Members[1].ID), items.ID)

	assert.Equal(t, "form", r.Clusters[1].Members[0].Tag)
	assert.False(t, r.Clusters[1].Repeated())
}

func TestBuilder_SubtreesIsDeterministic(t *testing.T) {
	assert.Equal(t, subtreeReport(t), subtreeReport(t))
}

func TestBuilder_SubtreesLeaveDocumentIntact(t *testing.T) {
	doc := extract(t)
	items := doc.Select("li")
	before := doc.Text(items[0])

	builder := report.NewBuilder(&metadata.NoopSink{})
	_, err := builder.Subtrees(doc, 0.5, []cluster.Cluster[*model.SubtreeNode]{cluster.Cluster[*model.SubtreeNode](items)})
	require.Nil(t, err)

	assert.Equal(t, before, doc.Text(items[0]))
	assert.Len(t, doc.Select("li"), 2)
}

func TestBuilder_Leaves(t *testing.T) {
	href, err := url.Parse("https://shop.example.com/item/1")
	require.NoError(t, err)

	text := model.NewTextNode("t1", []string{"ul", "li", "b"}, nil, map[string]float64{"shoe": 1, "red": 1})
	link := model.NewHyperlinkNode("h1", []string{"ul", "li", "a"}, nil, href)
	bare := model.NewHyperlinkNode("h2", []string{"ul", "li", "a"}, nil, nil)
	widget := model.NewElementNode("e1", []string{"form", "input"}, nil, "input")

	r := report.NewBuilder(&metadata.NoopSink{}).Leaves("listing.html", 0.7, []cluster.Cluster[model.ContentNode]{
		{text},
		{link, bare},
		{widget},
	})

	assert.Equal(t, report.ModeLeaves, r.Mode)
	require.Len(t, r.Clusters, 3)

	links := r.Clusters[0]
	require.Len(t, links.Members, 2)
	assert.Equal(t, "h1", links.Members[0].ID)
	assert.Equal(t, "ul/li/a", links.Members[0].Path)
	assert.Equal(t, "a", links.Members[0].Tag)
	assert.Equal(t, "https://shop.example.com/item/1", links.Members[0].Preview)
	assert.Equal(t, "", links.Members[1].Preview)

	assert.Equal(t, "red shoe", r.Clusters[1].Members[0].Preview)
	assert.Equal(t, "<input>", r.Clusters[2].Members[0].Preview)
	assert.Empty(t, r.Clusters[2].Members[0].Markdown)
}

func TestBuilder_LongPreviewIsTruncated(t *testing.T) {
	tf := map[string]float64{}
	for i := 0; i < 30; i++ {
		tf[fmt.Sprintf("term%02d", i)] = 1
	}
	node := model.NewTextNode("t", []string{"p"}, nil, tf)

	r := report.NewBuilder(&metadata.NoopSink{}).Leaves("long.html", 0.7, []cluster.Cluster[model.ContentNode]{{node}})

	preview := r.Clusters[0].Members[0].Preview
	assert.Equal(t, report.PreviewLength, utf8.RuneCountInString(preview))
	assert.True(t, strings.HasSuffix(preview, "…"))
	assert.True(t, strings.HasPrefix(preview, "term00 term01"))
}

func TestRenderJSON(t *testing.T) {
	out, err := report.RenderJSON(subtreeReport(t))
	require.Nil(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "subtrees", decoded["mode"])
	assert.Equal(t, "listing.html", decoded["source"])
	assert.Len(t, decoded["clusters"], 2)
}

func TestRenderJSON_EmptyReportHasClusterList(t *testing.T) {
	out, err := report.RenderJSON(report.Report{Source: "empty.html", Mode: report.ModeLeaves})
	require.Nil(t, err)
	assert.Contains(t, string(out), `"clusters": []`)
}

func TestRenderMarkdown(t *testing.T) {
	md := string(report.RenderMarkdown(subtreeReport(t)))

	assert.True(t, strings.HasPrefix(md, "# Record clusters: listing.html\n"))
	assert.Contains(t, md, "- Mode: subtrees\n")
	assert.Contains(t, md, "- Threshold: 0.50\n")
	assert.Contains(t, md, "- Clusters: 2 (1 repeated)\n")
	assert.Contains(t, md, "(2 members)")
	assert.Contains(t, md, "(1 member)")
	assert.Contains(t, md, "### `body/ul/li[1]`")
	assert.Contains(t, md, "[Red Shoe](/item/1)")
	assert.Contains(t, md, "\n> ")
	assert.Less(t, strings.Index(md, "li[1]"), strings.Index(md, "`body/form`"))
}

func TestRenderHTML(t *testing.T) {
	page := string(report.RenderHTML(subtreeReport(t)))

	assert.Contains(t, page, "<title>Record clusters: listing.html</title>")
	assert.Contains(t, page, "<h1")
	assert.Contains(t, page, "<blockquote>")
	assert.Contains(t, page, `href="/item/1"`)
}

func TestRender_Dispatch(t *testing.T) {
	r := subtreeReport(t)

	for _, format := range []string{config.ReportFormatJSON, config.ReportFormatMarkdown, config.ReportFormatHTML} {
		t.Run(format, func(t *testing.T) {
			out, err := report.Render(r, format)
			require.Nil(t, err)
			assert.NotEmpty(t, out)
		})
	}

	_, err := report.Render(r, "pdf")
	require.NotNil(t, err)
	var reportErr *report.ReportError
	require.ErrorAs(t, err, &reportErr)
	assert.Equal(t, report.ErrCauseUnsupportedFormat, reportErr.Cause)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "json", report.Extension(config.ReportFormatJSON))
	assert.Equal(t, "md", report.Extension(config.ReportFormatMarkdown))
	assert.Equal(t, "html", report.Extension(config.ReportFormatHTML))
}
