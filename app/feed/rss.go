package feed

import (
	"bytes"
	"cmp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tributary/app/database"
)

// RSSNormalizer parses RSS and Atom documents into canonical entries.
type RSSNormalizer struct {
	parser *gofeed.Parser
}

var _ Normalizer = (*RSSNormalizer)(nil)

func NewRSSNormalizer() *RSSNormalizer {
	return &RSSNormalizer{
		parser: gofeed.NewParser(),
	}
}

func (n *RSSNormalizer) Platform() database.Platform {
	return database.PlatformRSS
}

func (n *RSSNormalizer) Normalize(source *database.Source, data []byte) (*Metadata, []Entry, error) {
	parsed, err := n.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &ParseError{Platform: string(n.Platform()), Err: err}
	}

	metadata := &Metadata{
		Title: parsed.Title,
		Link:  parsed.Link,
	}
	if parsed.Image != nil {
		metadata.IconURL = parsed.Image.URL
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry, ok := n.normalizeItem(item)
		if !ok {
			// Malformed entries are common upstream; partial ingestion beats
			// aborting the refresh.
			continue
		}
		entries = append(entries, entry)
	}

	return metadata, entries, nil
}

func (n *RSSNormalizer) normalizeItem(item *gofeed.Item) (Entry, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return Entry{}, false
	}

	contentHTML := cmp.Or(item.Content, item.Description)
	contentHTML = SanitizeContent(RewriteEmbeds(contentHTML))
	contentText := StripHTML(contentHTML)

	entry := Entry{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       title,
		Link:        link,
		ContentHTML: contentHTML,
		ContentText: contentText,
		Excerpt:     Excerpt(contentText),
		Author:      itemAuthor(item),
		ImageURL:    itemImage(item),
		Tags:        item.Categories,
		PublishedAt: itemPublished(item),
	}

	return entry, true
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return strings.TrimSpace(item.Authors[0].Name)
	}
	if item.Author != nil {
		return strings.TrimSpace(item.Author.Name)
	}
	return ""
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	// First image enclosure, if any
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	return mediaThumbnail(item)
}

func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Now().UTC()
}

// mediaThumbnail digs a thumbnail URL out of the media RSS extension, which
// is where YouTube and several podcast hosts put preview images.
func mediaThumbnail(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}

	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, thumb := range media["thumbnail"] {
		if url := thumb.Attrs["url"]; url != "" {
			return url
		}
	}

	return ""
}

// mediaDescription returns the media:description of an entry, which carries
// the full video description in YouTube feeds.
func mediaDescription(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}

	for _, group := range media["group"] {
		for _, desc := range group.Children["description"] {
			if desc.Value != "" {
				return desc.Value
			}
		}
	}

	return ""
}
