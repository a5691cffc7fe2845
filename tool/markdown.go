package tool

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// RenderMarkdown converts markdown to HTML and sanitizes it with the UGC
// policy. A surrounding ```markdown fence is dropped first.
func RenderMarkdown(md string) string {
	md = strings.TrimSpace(md)
	md = strings.TrimPrefix(md, "```markdown")
	md = strings.TrimPrefix(md, "```")
	md = strings.TrimSuffix(md, "```")

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return string(bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer)))
}
