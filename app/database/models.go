package database

import (
	"time"
)

// Platform identifies the kind of remote origin a source is fetched from.
// Exactly one platform is active per source; only that platform's identifier
// fields are populated.
type Platform string

const (
	PlatformRSS     Platform = "rss"
	PlatformYouTube Platform = "youtube"
	PlatformReddit  Platform = "reddit"
	PlatformBluesky Platform = "bluesky"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformRSS, PlatformYouTube, PlatformReddit, PlatformBluesky:
		return true
	}
	return false
}

// Reddit source types
const (
	RedditSourceSubreddit = "subreddit"
	RedditSourceUser      = "user"
)

// Source represents a configured external content origin owned by a user.
// FeedURL is always the machine-fetchable endpoint, resolved once at creation
// and never re-derived from the original user input.
type Source struct {
	ID       string
	Owner    string
	Name     string
	Platform Platform
	FeedURL  string

	// Platform-specific identifiers
	ChannelID        string // youtube
	Subreddit        string // reddit, source type "subreddit"
	RedditUsername   string // reddit, source type "user"
	RedditSourceType string
	BlueskyHandle    string
	BlueskyDID       string

	IconURL              string
	Category             string
	FetchIntervalSeconds int
	RetentionDays        int
	MinRedditScore       int
	SuppressFromMainFeed bool
	ExtractContent       bool
	Enabled              bool
	WhitelistKeywords    []string
	BlacklistKeywords    []string

	LastFetchedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item represents a normalized, deduplicated unit of content ingested from a
// source. (SourceID, GUID) is the identity key; re-ingesting the same remote
// entry never creates a duplicate. Read/Saved are owned by the reader-facing
// layer and are never touched by re-ingestion.
type Item struct {
	ID          string
	SourceID    string
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
	Read        bool
	Saved       bool
	FirstSeenAt time.Time
}
