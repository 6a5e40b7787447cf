// Package normalize converts fetched content into comparison-ready
// plain text. HTML is stripped down to its visible text; everything
// else passes through unchanged.
package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TextNormalizer implements archive.Normalizer.
type TextNormalizer struct{}

// New creates a TextNormalizer.
func New() *TextNormalizer {
	return &TextNormalizer{}
}

// Normalize returns content in comparison-ready form. For text/html it
// strips script, style and noscript subtrees, emits each remaining text
// node on its own line, collapses whitespace runs within lines, and
// drops lines that end up empty. The transformation is deterministic
// and idempotent: normalizing already-normalized output is a no-op.
func (TextNormalizer) Normalize(content, contentType string) string {
	if !strings.HasPrefix(contentType, "text/html") {
		return content
	}
	return HTMLText(content)
}

// HTMLText extracts normalized visible text from an HTML document.
func HTMLText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// html.Parse only fails on reader errors, which a strings.Reader
		// never produces; fall back to whitespace normalization alone.
		return normalizeLines(content)
	}
	doc.Find("script, style, noscript").Remove()

	var chunks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			chunks = append(chunks, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	return normalizeLines(strings.Join(chunks, "\n"))
}

// normalizeLines collapses whitespace runs within each line, trims it,
// and drops lines that become empty.
func normalizeLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed != "" {
			out = append(out, collapsed)
		}
	}
	return strings.Join(out, "\n")
}
