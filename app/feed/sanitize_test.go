package feed

import (
	"strings"
	"testing"
)

func TestSanitizeContent_RemovesScripts(t *testing.T) {
	input := `<p>Hello</p><script>alert("xss")</script><img src="x" onerror="alert(1)">`

	result := SanitizeContent(input)

	if strings.Contains(result, "<script") {
		t.Errorf("Script tag should be removed, got: %s", result)
	}
	if strings.Contains(result, "onerror") {
		t.Errorf("Event handler attribute should be removed, got: %s", result)
	}
	if !strings.Contains(result, "<p>Hello</p>") {
		t.Errorf("Safe markup should survive, got: %s", result)
	}
}

func TestSanitizeContent_KeepsEmbedMarkup(t *testing.T) {
	input := `<div class="embed" data-embed="video" data-provider="youtube" data-aspect="landscape">` +
		`<iframe src="https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ" loading="lazy" frameborder="0" allowfullscreen=""></iframe></div>`

	result := SanitizeContent(input)

	for _, fragment := range []string{"<iframe", "data-provider=\"youtube\"", "data-aspect=\"landscape\"", "loading=\"lazy\""} {
		if !strings.Contains(result, fragment) {
			t.Errorf("Expected %q to survive sanitization, got: %s", fragment, result)
		}
	}
}

func TestSanitizeContent_KeepsVideoElements(t *testing.T) {
	input := `<video controls src="https://v.redd.it/abc/DASH_720.mp4"></video>`

	result := SanitizeContent(input)

	if !strings.Contains(result, "<video") {
		t.Errorf("Video element should survive, got: %s", result)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello world", "hello world"},
		{"tags removed", "<p>hello <b>world</b></p>", "hello world"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"whitespace collapsed", "<p>one</p>\n\n  <p>two</p>", "one two"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripHTML(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExcerpt_ShortTextUnchanged(t *testing.T) {
	input := "short text"

	if result := Excerpt(input); result != input {
		t.Errorf("Short text should pass through, got %q", result)
	}
}

func TestExcerpt_TruncatesAtWordBoundary(t *testing.T) {
	input := strings.Repeat("word ", 100)

	result := Excerpt(input)

	if len([]rune(result)) > excerptLength+1 {
		t.Errorf("Excerpt too long: %d runes", len([]rune(result)))
	}
	if !strings.HasSuffix(result, "…") {
		t.Errorf("Truncated excerpt should end with ellipsis, got %q", result)
	}
	if strings.HasSuffix(strings.TrimSuffix(result, "…"), "wor") {
		t.Errorf("Excerpt should cut on a word boundary, got %q", result)
	}
}
