package feed

import (
	"strings"

	"golang.org/x/text/cases"

	"tributary/app/database"
)

// Filterer applies a source's whitelist/blacklist keywords at read time, so
// filter edits apply retroactively to already-ingested items. An item passes
// when the whitelist is empty or matched, and no blacklist keyword matches.
// A blacklist match wins over any whitelist match.
type Filterer struct {
	folder cases.Caser
}

func NewFilterer() *Filterer {
	return &Filterer{
		folder: cases.Fold(),
	}
}

func (f *Filterer) Run(items []database.Item, source *database.Source) []database.Item {
	if !source.Enabled {
		return nil
	}

	if len(source.WhitelistKeywords) == 0 && len(source.BlacklistKeywords) == 0 {
		return items
	}

	filtered := make([]database.Item, 0, len(items))
	for _, item := range items {
		if f.passes(item, source) {
			filtered = append(filtered, item)
		}
	}

	return filtered
}

func (f *Filterer) passes(item database.Item, source *database.Source) bool {
	haystack := f.folder.String(strings.Join([]string{
		item.Title,
		item.ContentText,
		item.Excerpt,
		item.Author,
		strings.Join(item.Tags, " "),
	}, " "))

	for _, keyword := range source.BlacklistKeywords {
		if f.matches(haystack, keyword) {
			return false
		}
	}

	if len(source.WhitelistKeywords) == 0 {
		return true
	}

	for _, keyword := range source.WhitelistKeywords {
		if f.matches(haystack, keyword) {
			return true
		}
	}

	return false
}

func (f *Filterer) matches(haystack, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	return strings.Contains(haystack, f.folder.String(keyword))
}
