package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"tributary/app/database"
)

// Static per-platform fallbacks, the last provider in every cascade.
var defaultIcons = map[database.Platform]string{
	database.PlatformRSS:     "https://www.google.com/s2/favicons?sz=64&domain=rss.com",
	database.PlatformYouTube: "https://www.youtube.com/s/desktop/favicon_144x144.png",
	database.PlatformReddit:  "https://www.redditstatic.com/icon.png",
	database.PlatformBluesky: "https://web-cdn.bsky.app/static/apple-touch-icon.png",
}

// iconProvider attempts one lookup strategy. A provider returning an empty
// string simply passes control to the next one; errors never escape.
type iconProvider func(ctx context.Context, source *database.Source) string

// IconResolver discovers a display icon for a source through an ordered
// fallback cascade: platform-specific metadata first, generic favicon
// discovery for RSS, then a static per-platform default. Icons are cosmetic,
// so every failure is swallowed.
type IconResolver struct {
	client    *http.Client
	userAgent string
	providers map[database.Platform][]iconProvider
}

func NewIconResolver(client *http.Client, userAgent string) *IconResolver {
	r := &IconResolver{
		client:    client,
		userAgent: userAgent,
	}

	r.providers = map[database.Platform][]iconProvider{
		database.PlatformRSS:     {r.faviconFromOrigin, r.staticDefault},
		database.PlatformYouTube: {r.youtubeChannelImage, r.staticDefault},
		database.PlatformReddit:  {r.redditAboutImage, r.staticDefault},
		database.PlatformBluesky: {r.blueskyProfileAvatar, r.staticDefault},
	}

	return r
}

// Resolve walks the cascade for the source's platform; first non-empty wins.
func (r *IconResolver) Resolve(ctx context.Context, source *database.Source) string {
	for _, provider := range r.providers[source.Platform] {
		if iconURL := provider(ctx, source); iconURL != "" {
			return iconURL
		}
	}
	return ""
}

func (r *IconResolver) staticDefault(ctx context.Context, source *database.Source) string {
	return defaultIcons[source.Platform]
}

func (r *IconResolver) youtubeChannelImage(ctx context.Context, source *database.Source) string {
	if source.ChannelID == "" {
		return ""
	}

	body := r.get(ctx, "https://www.youtube.com/channel/"+source.ChannelID)
	if body == nil {
		return ""
	}

	return ogImage(body)
}

func (r *IconResolver) redditAboutImage(ctx context.Context, source *database.Source) string {
	var aboutURL string
	switch source.RedditSourceType {
	case database.RedditSourceSubreddit:
		aboutURL = fmt.Sprintf("https://www.reddit.com/r/%s/about.json?raw_json=1", source.Subreddit)
	case database.RedditSourceUser:
		aboutURL = fmt.Sprintf("https://www.reddit.com/user/%s/about.json?raw_json=1", source.RedditUsername)
	default:
		return ""
	}

	body := r.get(ctx, aboutURL)
	if body == nil {
		return ""
	}

	var about struct {
		Data struct {
			IconImg       string `json:"icon_img"`
			CommunityIcon string `json:"community_icon"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &about); err != nil {
		return ""
	}

	icon := about.Data.CommunityIcon
	if icon == "" {
		icon = about.Data.IconImg
	}
	// community_icon often arrives with an escaped query string
	if idx := strings.Index(icon, "?"); idx >= 0 && strings.Contains(icon, "&amp;") {
		icon = icon[:idx]
	}
	return icon
}

func (r *IconResolver) blueskyProfileAvatar(ctx context.Context, source *database.Source) string {
	if source.BlueskyHandle == "" {
		return ""
	}

	body := r.get(ctx, "https://public.api.bsky.app/xrpc/app.bsky.actor.getProfile?actor="+url.QueryEscape(source.BlueskyHandle))
	if body == nil {
		return ""
	}

	var profile struct {
		Avatar string `json:"avatar"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return ""
	}
	return profile.Avatar
}

// faviconFromOrigin fetches the feed's origin page and looks for an icon link
// in its head, falling back to the conventional /favicon.ico location.
func (r *IconResolver) faviconFromOrigin(ctx context.Context, source *database.Source) string {
	u, err := url.Parse(source.FeedURL)
	if err != nil || u.Host == "" {
		return ""
	}
	origin := u.Scheme + "://" + u.Host

	if body := r.get(ctx, origin); body != nil {
		if href := faviconLink(body); href != "" {
			if resolved := resolveRef(origin, href); resolved != "" {
				return resolved
			}
		}
	}

	return origin + "/favicon.ico"
}

func (r *IconResolver) get(ctx context.Context, rawURL string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil
	}
	return body
}

// ogImage extracts the og:image meta content from an HTML document.
func ogImage(body []byte) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var property, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "property", "name":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if property == "og:image" && content != "" {
				found = content
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found
}

// faviconLink extracts the href of the first <link rel="...icon..."> element.
func faviconLink(body []byte) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, href string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "rel":
					rel = strings.ToLower(attr.Val)
				case "href":
					href = attr.Val
				}
			}
			if strings.Contains(rel, "icon") && href != "" {
				found = href
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found
}

func resolveRef(origin, href string) string {
	base, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
