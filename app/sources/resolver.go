package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tributary/app/database"
)

// Resolution is the outcome of turning raw user input into a canonical,
// machine-fetchable feed endpoint plus the platform's identifiers. The feed
// URL is resolved exactly once, at source creation.
type Resolution struct {
	FeedURL string
	Name    string

	ChannelID        string
	Subreddit        string
	RedditUsername   string
	RedditSourceType string
	BlueskyHandle    string
}

// PlatformResolver maps raw input for one platform. Every implementation is a
// pure string/URL transform except YouTube's channel-id discovery, which may
// fetch the channel page.
type PlatformResolver interface {
	Platform() database.Platform
	Resolve(ctx context.Context, rawInput string) (*Resolution, error)
}

// Resolver dispatches resolution on the platform tag.
type Resolver struct {
	resolvers map[database.Platform]PlatformResolver
}

func NewResolver(client *http.Client, userAgent string) *Resolver {
	resolvers := make(map[database.Platform]PlatformResolver)
	for _, r := range []PlatformResolver{
		&RSSResolver{},
		&YouTubeResolver{client: client, userAgent: userAgent},
		&RedditResolver{},
		&BlueskyResolver{},
	} {
		resolvers[r.Platform()] = r
	}

	return &Resolver{resolvers: resolvers}
}

func (r *Resolver) Resolve(ctx context.Context, platform database.Platform, rawInput string) (*Resolution, error) {
	resolver, ok := r.resolvers[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	return resolver.Resolve(ctx, rawInput)
}

// BuildSource assembles a new source from a resolution, with defaults applied.
func BuildSource(owner string, platform database.Platform, res *Resolution) *database.Source {
	return &database.Source{
		Owner:                owner,
		Name:                 res.Name,
		Platform:             platform,
		FeedURL:              res.FeedURL,
		ChannelID:            res.ChannelID,
		Subreddit:            res.Subreddit,
		RedditUsername:       res.RedditUsername,
		RedditSourceType:     res.RedditSourceType,
		BlueskyHandle:        res.BlueskyHandle,
		FetchIntervalSeconds: 900,
		RetentionDays:        30,
		Enabled:              true,
	}
}

// RSSResolver uses the input verbatim as the feed URL. The display name
// defaults to the URL's host until the feed's own title is known.
type RSSResolver struct{}

func (r *RSSResolver) Platform() database.Platform {
	return database.PlatformRSS
}

func (r *RSSResolver) Resolve(ctx context.Context, rawInput string) (*Resolution, error) {
	u, err := url.Parse(rawInput)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidSourceURL
	}

	return &Resolution{
		FeedURL: rawInput,
		Name:    u.Host,
	}, nil
}
