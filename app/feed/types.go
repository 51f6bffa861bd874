package feed

import (
	"time"

	"tributary/app/database"
)

// Metadata carries feed-level information discovered while parsing, used to
// backfill a source's display name and icon after the first successful fetch.
type Metadata struct {
	Title   string
	Link    string
	IconURL string
}

// Entry is a normalized feed entry, the canonical shape every platform's
// payload is reduced to before dedup and storage.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	ContentHTML string
	ContentText string
	Excerpt     string
	Author      string
	ImageURL    string
	Tags        []string
	PublishedAt time.Time
}

// Normalizer parses a platform-native payload into canonical entries.
type Normalizer interface {
	Platform() database.Platform
	Normalize(source *database.Source, data []byte) (*Metadata, []Entry, error)
}

// IngestionResult reports the outcome of refreshing a single source.
type IngestionResult struct {
	SourceID     string
	NewItemCount int
	Err          error
}

// BatchResult aggregates a multi-source refresh. Per-source failures are
// recorded, never raised.
type BatchResult struct {
	SourcesRefreshed int
	TotalNewItems    int
	Errors           map[string]error
}
