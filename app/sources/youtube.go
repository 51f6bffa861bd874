package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"tributary/app/database"
)

const youtubeFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

var (
	// A UC-prefixed id present in the input is taken verbatim, whatever its
	// length; only ids scraped out of page markup are held to the canonical
	// 24-character form.
	channelIDRe     = regexp.MustCompile(`^UC[A-Za-z0-9_-]+$`)
	channelPathRe   = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]+)`)
	handlePathRe    = regexp.MustCompile(`(?:^|/)(@[A-Za-z0-9._-]{3,30})`)
	legacyPathRe    = regexp.MustCompile(`/(?:c|user)/([A-Za-z0-9._-]+)`)
	pageChannelIDRe = regexp.MustCompile(`"channelId":"(UC[A-Za-z0-9_-]{22})"`)
)

// YouTubeResolver accepts a channel URL, an @handle URL, a legacy /c/ or
// /user/ URL, or a literal channel id. A UC-prefixed id present in the input
// is used directly with zero network calls; anything else requires fetching
// the channel page and extracting the id from its metadata. This is the only
// resolver permitted to perform network I/O.
type YouTubeResolver struct {
	client    *http.Client
	userAgent string
}

func (r *YouTubeResolver) Platform() database.Platform {
	return database.PlatformYouTube
}

func (r *YouTubeResolver) Resolve(ctx context.Context, rawInput string) (*Resolution, error) {
	input := strings.TrimSpace(rawInput)

	if channelIDRe.MatchString(input) {
		return r.resolution(input), nil
	}

	if m := channelPathRe.FindStringSubmatch(input); m != nil {
		return r.resolution(m[1]), nil
	}

	pageURL := ""
	if m := handlePathRe.FindStringSubmatch(input); m != nil {
		pageURL = "https://www.youtube.com/" + m[1]
	} else if m := legacyPathRe.FindStringSubmatch(input); m != nil {
		pageURL = "https://www.youtube.com/c/" + m[1]
	}

	if pageURL == "" {
		return nil, ErrInvalidSourceURL
	}

	channelID, err := r.discoverChannelID(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return r.resolution(channelID), nil
}

func (r *YouTubeResolver) resolution(channelID string) *Resolution {
	return &Resolution{
		FeedURL:   fmt.Sprintf(youtubeFeedURL, channelID),
		ChannelID: channelID,
	}
}

// discoverChannelID fetches the channel's web page and extracts the canonical
// UC id from its embedded metadata.
func (r *YouTubeResolver) discoverChannelID(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrChannelNotFound
	}

	// 2MB is plenty: the channelId shows up in the page head.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read channel page: %w", err)
	}

	if m := pageChannelIDRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	if m := channelPathRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}

	return "", ErrChannelNotFound
}
