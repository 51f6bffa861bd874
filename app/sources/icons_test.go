package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tributary/app/database"
)

func TestIconResolver_FaviconFromLinkTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte(`<html><head><link rel="shortcut icon" href="/static/fav.png"></head></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	resolver := NewIconResolver(&http.Client{Timeout: time.Second}, "test")
	source := &database.Source{
		Platform: database.PlatformRSS,
		FeedURL:  server.URL + "/feed.xml",
	}

	iconURL := resolver.Resolve(context.Background(), source)

	if iconURL != server.URL+"/static/fav.png" {
		t.Errorf("Expected icon link resolved against origin, got '%s'", iconURL)
	}
}

func TestIconResolver_FaviconFallsBackToConvention(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>no icon here</title></head></html>`))
	}))
	defer server.Close()

	resolver := NewIconResolver(&http.Client{Timeout: time.Second}, "test")
	source := &database.Source{
		Platform: database.PlatformRSS,
		FeedURL:  server.URL + "/feed.xml",
	}

	iconURL := resolver.Resolve(context.Background(), source)

	if iconURL != server.URL+"/favicon.ico" {
		t.Errorf("Expected conventional favicon path, got '%s'", iconURL)
	}
}

func TestIconResolver_StaticDefaultWhenIdentifierMissing(t *testing.T) {
	resolver := NewIconResolver(&http.Client{Timeout: time.Second}, "test")

	// No channel id, so the platform lookup is skipped entirely
	source := &database.Source{Platform: database.PlatformYouTube}

	iconURL := resolver.Resolve(context.Background(), source)

	if iconURL != defaultIcons[database.PlatformYouTube] {
		t.Errorf("Expected static default, got '%s'", iconURL)
	}
}

func TestOGImage(t *testing.T) {
	body := `<html><head>
<meta property="og:title" content="Channel">
<meta property="og:image" content="https://example.com/banner.jpg">
</head></html>`

	if got := ogImage([]byte(body)); got != "https://example.com/banner.jpg" {
		t.Errorf("Unexpected og:image: %s", got)
	}
}

func TestOGImage_Missing(t *testing.T) {
	if got := ogImage([]byte(`<html><head></head></html>`)); got != "" {
		t.Errorf("Expected empty result, got '%s'", got)
	}
}

func TestFaviconLink_RelVariants(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"icon", `<link rel="icon" href="/a.png">`, "/a.png"},
		{"shortcut icon", `<link rel="shortcut icon" href="/b.ico">`, "/b.ico"},
		{"apple touch", `<link rel="apple-touch-icon" href="/c.png">`, "/c.png"},
		{"stylesheet ignored", `<link rel="stylesheet" href="/style.css">`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := "<html><head>" + tt.body + "</head></html>"
			if got := faviconLink([]byte(body)); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestResolveRef(t *testing.T) {
	tests := []struct {
		origin   string
		href     string
		expected string
	}{
		{"https://example.com", "/fav.png", "https://example.com/fav.png"},
		{"https://example.com", "fav.png", "https://example.com/fav.png"},
		{"https://example.com", "https://cdn.example.com/fav.png", "https://cdn.example.com/fav.png"},
	}

	for _, tt := range tests {
		if got := resolveRef(tt.origin, tt.href); got != tt.expected {
			t.Errorf("resolveRef(%q, %q): expected '%s', got '%s'", tt.origin, tt.href, tt.expected, got)
		}
	}
}
