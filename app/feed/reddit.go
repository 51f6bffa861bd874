package feed

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"tributary/app/database"
)

// RedditNormalizer maps Reddit JSON listings into canonical entries. Galleries
// become a responsive image grid, native videos an embeddable video element.
// Posts below a source's minimum score threshold are dropped before they reach
// dedup.
type RedditNormalizer struct{}

var _ Normalizer = (*RedditNormalizer)(nil)

func NewRedditNormalizer() *RedditNormalizer {
	return &RedditNormalizer{}
}

func (n *RedditNormalizer) Platform() database.Platform {
	return database.PlatformReddit
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Name          string  `json:"name"` // fullname, e.g. t3_abc123
	Title         string  `json:"title"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	LinkFlairText string  `json:"link_flair_text"`
	SelftextHTML  string  `json:"selftext_html"`
	Selftext      string  `json:"selftext"`
	Score         int     `json:"score"`
	CreatedUTC    float64 `json:"created_utc"`
	Thumbnail     string  `json:"thumbnail"`
	PostHint      string  `json:"post_hint"`
	IsVideo       bool    `json:"is_video"`
	IsGallery     bool    `json:"is_gallery"`
	Media         struct {
		RedditVideo struct {
			FallbackURL string `json:"fallback_url"`
		} `json:"reddit_video"`
	} `json:"media"`
	Preview struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
	GalleryData struct {
		Items []struct {
			MediaID string `json:"media_id"`
		} `json:"items"`
	} `json:"gallery_data"`
	MediaMetadata map[string]struct {
		S struct {
			U   string `json:"u"`
			GIF string `json:"gif"`
		} `json:"s"`
	} `json:"media_metadata"`
}

func (n *RedditNormalizer) Normalize(source *database.Source, data []byte) (*Metadata, []Entry, error) {
	var listing redditListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, nil, &ParseError{Platform: string(n.Platform()), Err: err}
	}

	metadata := &Metadata{}

	entries := make([]Entry, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}

		post := child.Data
		if post.Title == "" || post.Permalink == "" {
			continue
		}
		if source.MinRedditScore > 0 && post.Score < source.MinRedditScore {
			continue
		}

		contentHTML := SanitizeContent(RewriteEmbeds(n.postContent(post)))
		contentText := StripHTML(contentHTML)

		var tags []string
		if post.LinkFlairText != "" {
			tags = append(tags, post.LinkFlairText)
		}

		entries = append(entries, Entry{
			GUID:        post.Name,
			Title:       html.UnescapeString(post.Title),
			Link:        "https://www.reddit.com" + post.Permalink,
			ContentHTML: contentHTML,
			ContentText: contentText,
			Excerpt:     Excerpt(contentText),
			Author:      post.Author,
			ImageURL:    n.previewImage(post),
			Tags:        tags,
			PublishedAt: time.Unix(int64(post.CreatedUTC), 0).UTC(),
		})
	}

	return metadata, entries, nil
}

func (n *RedditNormalizer) postContent(post redditPost) string {
	switch {
	case post.IsGallery:
		return n.galleryGrid(post)
	case post.IsVideo && post.Media.RedditVideo.FallbackURL != "":
		return fmt.Sprintf(
			`<div class="embed" data-embed="video" data-provider="reddit" data-aspect="landscape"><video controls preload="metadata" src="%s"></video></div>`,
			html.EscapeString(post.Media.RedditVideo.FallbackURL))
	case post.SelftextHTML != "":
		return html.UnescapeString(post.SelftextHTML)
	case isImageURL(post):
		return fmt.Sprintf(`<img src="%s" alt="%s"/>`,
			html.EscapeString(html.UnescapeString(post.URL)), html.EscapeString(post.Title))
	case post.URL != "":
		return fmt.Sprintf(`<p><a href="%s">%s</a></p>`,
			html.EscapeString(post.URL), html.EscapeString(post.URL))
	}
	return ""
}

// galleryGrid synthesizes a responsive grid container for multi-image posts,
// preserving the author's image order from gallery_data.
func (n *RedditNormalizer) galleryGrid(post redditPost) string {
	var imgs []string
	for _, item := range post.GalleryData.Items {
		meta, ok := post.MediaMetadata[item.MediaID]
		if !ok {
			continue
		}
		src := meta.S.U
		if src == "" {
			src = meta.S.GIF
		}
		if src == "" {
			continue
		}
		imgs = append(imgs, fmt.Sprintf(`<img src="%s" loading="lazy"/>`,
			html.EscapeString(html.UnescapeString(src))))
	}

	if len(imgs) == 0 {
		return ""
	}
	if len(imgs) == 1 {
		return imgs[0]
	}

	return `<div class="gallery-grid" style="display:grid;grid-template-columns:repeat(2, 1fr);gap:4px">` +
		strings.Join(imgs, "") + `</div>`
}

func (n *RedditNormalizer) previewImage(post redditPost) string {
	if len(post.Preview.Images) > 0 {
		return html.UnescapeString(post.Preview.Images[0].Source.URL)
	}
	if strings.HasPrefix(post.Thumbnail, "http") {
		return post.Thumbnail
	}
	return ""
}

func isImageURL(post redditPost) bool {
	if post.PostHint == "image" {
		return true
	}
	url := strings.ToLower(post.URL)
	return strings.HasSuffix(url, ".jpg") || strings.HasSuffix(url, ".jpeg") ||
		strings.HasSuffix(url, ".png") || strings.HasSuffix(url, ".gif") ||
		strings.HasSuffix(url, ".webp")
}
