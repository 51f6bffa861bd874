package feed

import (
	"bytes"
	"cmp"
	"html"
	"strings"

	"github.com/mmcdole/gofeed"

	"tributary/app/database"
)

// YouTubeNormalizer parses the per-channel Atom video feed. Entries are plain
// Atom with a media:group extension; the content is synthesized as an embedded
// player plus the video description.
type YouTubeNormalizer struct {
	parser *gofeed.Parser
}

var _ Normalizer = (*YouTubeNormalizer)(nil)

func NewYouTubeNormalizer() *YouTubeNormalizer {
	return &YouTubeNormalizer{
		parser: gofeed.NewParser(),
	}
}

func (n *YouTubeNormalizer) Platform() database.Platform {
	return database.PlatformYouTube
}

func (n *YouTubeNormalizer) Normalize(source *database.Source, data []byte) (*Metadata, []Entry, error) {
	parsed, err := n.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &ParseError{Platform: string(n.Platform()), Err: err}
	}

	metadata := &Metadata{
		Title: parsed.Title,
		Link:  parsed.Link,
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		description := mediaDescription(item)
		contentHTML := RewriteEmbeds(link)
		if description != "" {
			contentHTML += "<p>" + html.EscapeString(description) + "</p>"
		}
		contentHTML = SanitizeContent(contentHTML)
		contentText := StripHTML("<p>" + html.EscapeString(description) + "</p>")

		entries = append(entries, Entry{
			GUID:        cmp.Or(item.GUID, link),
			Title:       title,
			Link:        link,
			ContentHTML: contentHTML,
			ContentText: contentText,
			Excerpt:     Excerpt(contentText),
			Author:      cmp.Or(itemAuthor(item), parsed.Title),
			ImageURL:    mediaThumbnail(item),
			PublishedAt: itemPublished(item),
		})
	}

	return metadata, entries, nil
}
