package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"tributary/app/database"
)

const (
	subredditFeedURL  = "https://www.reddit.com/r/%s/hot.json?limit=50&raw_json=1"
	redditUserFeedURL = "https://www.reddit.com/user/%s/submitted.json?limit=50&raw_json=1"
)

var (
	subredditRe  = regexp.MustCompile(`^(?:https?://(?:www\.|old\.)?reddit\.com)?/?r/([A-Za-z0-9_]{2,21})(?:/.*)?$`)
	redditUserRe = regexp.MustCompile(`^(?:https?://(?:www\.|old\.)?reddit\.com)?/?u(?:ser)?/([A-Za-z0-9_-]{3,20})(?:/.*)?$`)
	bareNameRe   = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)
)

// RedditResolver classifies input into a subreddit or a reddit user. Accepted
// shapes: bare name, r/name, u/name, or a full subreddit/user URL. A bare name
// is treated as a subreddit. Pure string transform, no network.
type RedditResolver struct{}

func (r *RedditResolver) Platform() database.Platform {
	return database.PlatformReddit
}

func (r *RedditResolver) Resolve(ctx context.Context, rawInput string) (*Resolution, error) {
	input := strings.TrimSpace(rawInput)

	if m := redditUserRe.FindStringSubmatch(input); m != nil {
		return &Resolution{
			FeedURL:          fmt.Sprintf(redditUserFeedURL, m[1]),
			Name:             "u/" + m[1],
			RedditUsername:   m[1],
			RedditSourceType: database.RedditSourceUser,
		}, nil
	}

	name := ""
	if m := subredditRe.FindStringSubmatch(input); m != nil {
		name = m[1]
	} else if bareNameRe.MatchString(input) {
		name = input
	}

	if name == "" {
		return nil, ErrInvalidRedditSource
	}

	return &Resolution{
		FeedURL:          fmt.Sprintf(subredditFeedURL, name),
		Name:             "r/" + name,
		Subreddit:        name,
		RedditSourceType: database.RedditSourceSubreddit,
	}, nil
}
