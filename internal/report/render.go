package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/pkg/failure"
)

// Extension returns the file extension for a report format.
func Extension(format string) string {
	switch format {
	case config.ReportFormatJSON:
		return "json"
	case config.ReportFormatHTML:
		return "html"
	default:
		return "md"
	}
}

// Render encodes r in one of the config.ReportFormat* formats.
func Render(r Report, format string) ([]byte, failure.ClassifiedError) {
	switch format {
	case config.ReportFormatJSON:
		return RenderJSON(r)
	case config.ReportFormatMarkdown:
		return RenderMarkdown(r), nil
	case config.ReportFormatHTML:
		return RenderHTML(r), nil
	default:
		return nil, &ReportError{
			Message:   fmt.Sprintf("no renderer for %q", format),
			Retryable: false,
			Cause:     ErrCauseUnsupportedFormat,
		}
	}
}

func RenderJSON(r Report) ([]byte, failure.ClassifiedError) {
	if r.Clusters == nil {
		r.Clusters = []Cluster{}
	}
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, &ReportError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodingFailure,
		}
	}
	return append(out, '\n'), nil
}

func RenderMarkdown(r Report) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Record clusters: %s\n\n", r.Source)
	fmt.Fprintf(&b, "- Mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "- Threshold: %.2f\n", r.Threshold)
	fmt.Fprintf(&b, "- Clusters: %d (%d repeated)\n", len(r.Clusters), r.Repeated())

	for i, c := range r.Clusters {
		fmt.Fprintf(&b, "\n## Cluster %d `%s` (%d %s)\n", i+1, c.ID, c.Size, plural(c.Size, "member", "members"))
		for _, m := range c.Members {
			fmt.Fprintf(&b, "\n### `%s`\n\n", m.Path)
			fmt.Fprintf(&b, "- ID: `%s`\n", m.ID)
			fmt.Fprintf(&b, "- Tag: `%s`\n", m.Tag)
			fmt.Fprintf(&b, "- Leaves: %d\n", m.Leaves)
			if m.Markdown != "" {
				fmt.Fprintf(&b, "\n%s\n", quote(m.Markdown))
			} else if m.Preview != "" {
				fmt.Fprintf(&b, "\n> %s\n", m.Preview)
			}
		}
	}
	return []byte(b.String())
}

// RenderHTML renders the Markdown report as a standalone page.
func RenderHTML(r Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Title: "Record clusters: " + r.Source,
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
	})
	return markdown.ToHTML(RenderMarkdown(r), p, renderer)
}

// quote nests member markup in a blockquote so its headings stay below the report's.
func quote(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
