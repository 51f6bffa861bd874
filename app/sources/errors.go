package sources

import "errors"

// User-input resolution errors. Surfaced verbatim to the caller and never
// retried automatically.
var (
	ErrInvalidSourceURL     = errors.New("input does not contain a recognizable source identifier")
	ErrChannelNotFound      = errors.New("could not discover a channel id for the given input")
	ErrInvalidRedditSource  = errors.New("input is not a valid subreddit or reddit user")
	ErrInvalidBlueskyHandle = errors.New("input is not a valid bluesky handle or profile URL")
)
