package feed

import (
	"cmp"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"tributary/app/database"
)

// BlueskyNormalizer maps an author feed response from the Bluesky public API
// into canonical entries: post text, embedded images and quote posts.
type BlueskyNormalizer struct{}

var _ Normalizer = (*BlueskyNormalizer)(nil)

func NewBlueskyNormalizer() *BlueskyNormalizer {
	return &BlueskyNormalizer{}
}

func (n *BlueskyNormalizer) Platform() database.Platform {
	return database.PlatformBluesky
}

type blueskyAuthorFeed struct {
	Feed []struct {
		Post blueskyPost `json:"post"`
	} `json:"feed"`
}

type blueskyPost struct {
	URI    string `json:"uri"`
	CID    string `json:"cid"`
	Author struct {
		DID         string `json:"did"`
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"author"`
	Record struct {
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"record"`
	Embed *blueskyEmbed `json:"embed"`
}

type blueskyEmbed struct {
	Type   string `json:"$type"`
	Images []struct {
		Thumb    string `json:"thumb"`
		Fullsize string `json:"fullsize"`
		Alt      string `json:"alt"`
	} `json:"images"`
	External *struct {
		URI         string `json:"uri"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Thumb       string `json:"thumb"`
	} `json:"external"`
	Record *struct {
		Author struct {
			Handle      string `json:"handle"`
			DisplayName string `json:"displayName"`
		} `json:"author"`
		Value struct {
			Text string `json:"text"`
		} `json:"value"`
	} `json:"record"`
}

func (n *BlueskyNormalizer) Normalize(source *database.Source, data []byte) (*Metadata, []Entry, error) {
	var authorFeed blueskyAuthorFeed
	if err := json.Unmarshal(data, &authorFeed); err != nil {
		return nil, nil, &ParseError{Platform: string(n.Platform()), Err: err}
	}

	metadata := &Metadata{}

	entries := make([]Entry, 0, len(authorFeed.Feed))
	for _, post := range authorFeed.Feed {
		entry, ok := n.normalizePost(post.Post)
		if !ok {
			continue
		}

		if metadata.Title == "" && post.Post.Author.Handle == source.BlueskyHandle {
			metadata.Title = post.Post.Author.DisplayName
			metadata.IconURL = post.Post.Author.Avatar
		}

		entries = append(entries, entry)
	}

	return metadata, entries, nil
}

func (n *BlueskyNormalizer) normalizePost(post blueskyPost) (Entry, bool) {
	link := postWebURL(post)
	if post.URI == "" || link == "" {
		return Entry{}, false
	}

	text := strings.TrimSpace(post.Record.Text)
	title := postTitle(text)
	if title == "" {
		return Entry{}, false
	}

	contentHTML := n.postContent(post, text)
	contentHTML = SanitizeContent(RewriteEmbeds(contentHTML))
	contentText := StripHTML(contentHTML)

	author := post.Author.DisplayName
	if author == "" {
		author = post.Author.Handle
	}

	return Entry{
		GUID:        post.URI,
		Title:       title,
		Link:        link,
		ContentHTML: contentHTML,
		ContentText: contentText,
		Excerpt:     Excerpt(contentText),
		Author:      author,
		ImageURL:    postImage(post),
		PublishedAt: post.Record.CreatedAt.UTC(),
	}, true
}

func (n *BlueskyNormalizer) postContent(post blueskyPost, text string) string {
	var b strings.Builder

	if text != "" {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(text), "\n", "<br/>"))
		b.WriteString("</p>")
	}

	if post.Embed == nil {
		return b.String()
	}

	for _, img := range post.Embed.Images {
		src := img.Fullsize
		if src == "" {
			src = img.Thumb
		}
		if src == "" {
			continue
		}
		b.WriteString(fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy"/>`,
			html.EscapeString(src), html.EscapeString(img.Alt)))
	}

	if ext := post.Embed.External; ext != nil && ext.URI != "" {
		b.WriteString(fmt.Sprintf(`<p><a href="%s">%s</a></p>`,
			html.EscapeString(ext.URI), html.EscapeString(cmp.Or(ext.Title, ext.URI))))
	}

	if quoted := post.Embed.Record; quoted != nil && quoted.Value.Text != "" {
		author := cmp.Or(quoted.Author.DisplayName, quoted.Author.Handle)
		b.WriteString("<blockquote><p>")
		b.WriteString(html.EscapeString(quoted.Value.Text))
		b.WriteString("</p>")
		if author != "" {
			b.WriteString("<cite>" + html.EscapeString(author) + "</cite>")
		}
		b.WriteString("</blockquote>")
	}

	return b.String()
}

// postWebURL converts an AT URI (at://did:plc:x/app.bsky.feed.post/rkey) into
// the public web URL of the post.
func postWebURL(post blueskyPost) string {
	idx := strings.LastIndex(post.URI, "/")
	if idx < 0 || idx == len(post.URI)-1 {
		return ""
	}
	rkey := post.URI[idx+1:]

	actor := post.Author.Handle
	if actor == "" {
		actor = post.Author.DID
	}
	if actor == "" {
		return ""
	}

	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", actor, rkey)
}

const postTitleLength = 80

// postTitle derives a short title from the first line of the post text.
func postTitle(text string) string {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	runes := []rune(line)
	if len(runes) > postTitleLength {
		line = string(runes[:postTitleLength]) + "…"
	}
	return line
}

func postImage(post blueskyPost) string {
	if post.Embed == nil {
		return ""
	}
	for _, img := range post.Embed.Images {
		if img.Thumb != "" {
			return img.Thumb
		}
		if img.Fullsize != "" {
			return img.Fullsize
		}
	}
	if post.Embed.External != nil {
		return post.Embed.External.Thumb
	}
	return ""
}
