package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"tributary/app/database"
)

const blueskyFeedURL = "https://public.api.bsky.app/xrpc/app.bsky.feed.getAuthorFeed?actor=%s&limit=50"

var blueskyHandleRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)+$`)

// BlueskyResolver accepts a handle (alice.bsky.social), an @-prefixed handle,
// or a profile URL, and strips it down to the bare handle. The feed endpoint
// addresses the account through its handle; no network round trip is needed.
type BlueskyResolver struct{}

func (r *BlueskyResolver) Platform() database.Platform {
	return database.PlatformBluesky
}

func (r *BlueskyResolver) Resolve(ctx context.Context, rawInput string) (*Resolution, error) {
	handle := strings.TrimSpace(rawInput)

	if strings.Contains(handle, "://") {
		u, err := url.Parse(handle)
		if err != nil {
			return nil, ErrInvalidBlueskyHandle
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "profile" {
			return nil, ErrInvalidBlueskyHandle
		}
		handle = parts[1]
	}

	handle = strings.TrimPrefix(handle, "@")

	if !blueskyHandleRe.MatchString(handle) && !strings.HasPrefix(handle, "did:") {
		return nil, ErrInvalidBlueskyHandle
	}

	return &Resolution{
		FeedURL:       fmt.Sprintf(blueskyFeedURL, url.QueryEscape(handle)),
		Name:          "@" + handle,
		BlueskyHandle: handle,
	}, nil
}
