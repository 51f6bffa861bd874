package feed

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// contentPolicy keeps common article markup plus the embed markup the
	// rewriter produces (iframes and video elements with their data tags).
	contentPolicy = buildContentPolicy()

	// textPolicy strips all markup, used to derive the plain-text form of an
	// entry for filtering and excerpts.
	textPolicy = bluemonday.StrictPolicy()

	whitespaceRe = regexp.MustCompile(`\s+`)
)

func buildContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("iframe", "video", "source", "figure", "figcaption")
	p.AllowAttrs("src", "title", "loading", "allowfullscreen", "frameborder").OnElements("iframe")
	p.AllowAttrs("src", "controls", "preload", "poster", "muted", "loop").OnElements("video")
	p.AllowAttrs("src", "type").OnElements("source")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("data-embed", "data-aspect", "data-provider").OnElements("div", "iframe", "video")
	p.AllowAttrs("style").OnElements("div", "img")
	p.AllowStyles("display", "grid-template-columns", "gap", "max-width", "width", "aspect-ratio").Globally()
	return p
}

// SanitizeContent runs untrusted upstream HTML through the content policy.
func SanitizeContent(contentHTML string) string {
	return contentPolicy.Sanitize(contentHTML)
}

// StripHTML reduces HTML to collapsed plain text.
func StripHTML(contentHTML string) string {
	text := textPolicy.Sanitize(contentHTML)
	text = html.UnescapeString(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

const excerptLength = 280

// Excerpt truncates plain text to a short preview, cutting at a word boundary.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}

	truncated := string(runes[:excerptLength])
	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "…"
}
