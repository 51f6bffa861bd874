package feed

import (
	"fmt"
	"regexp"
)

// embedProvider recognizes one family of embeddable media URLs and produces
// replacement markup. Portrait vs. landscape is tagged on the wrapper so the
// presentation layer can style short-form video without re-parsing URLs.
type embedProvider struct {
	name     string
	pattern  *regexp.Regexp
	portrait bool
	embedURL func(matches []string) string
}

var embedProviders = []embedProvider{
	{
		name:    "youtube",
		pattern: regexp.MustCompile(`https?://(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([A-Za-z0-9_-]{11})[^\s"'<]*`),
		embedURL: func(m []string) string {
			return "https://www.youtube-nocookie.com/embed/" + m[1]
		},
	},
	{
		name:     "youtube-shorts",
		pattern:  regexp.MustCompile(`https?://(?:www\.)?youtube\.com/shorts/([A-Za-z0-9_-]{11})[^\s"'<]*`),
		portrait: true,
		embedURL: func(m []string) string {
			return "https://www.youtube-nocookie.com/embed/" + m[1]
		},
	},
	{
		name:     "tiktok",
		pattern:  regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[\w.-]+/video/(\d+)[^\s"'<]*`),
		portrait: true,
		embedURL: func(m []string) string {
			return "https://www.tiktok.com/embed/v2/" + m[1]
		},
	},
	{
		name:    "twitch-clip",
		pattern: regexp.MustCompile(`https?://clips\.twitch\.tv/([A-Za-z0-9_-]+)`),
		embedURL: func(m []string) string {
			return "https://clips.twitch.tv/embed?clip=" + m[1]
		},
	},
	{
		name:    "streamable",
		pattern: regexp.MustCompile(`https?://(?:www\.)?streamable\.com/([a-z0-9]+)`),
		embedURL: func(m []string) string {
			return "https://streamable.com/e/" + m[1]
		},
	},
}

// anchorRe matches a whole link element so a recognized URL inside an anchor
// is replaced together with its wrapping tag rather than nested inside it.
var anchorRe = regexp.MustCompile(`(?s)<a\b[^>]*href="([^"]+)"[^>]*>.*?</a>`)

// RewriteEmbeds scans content for known embeddable media links and replaces
// them with sanitized embed markup.
func RewriteEmbeds(contentHTML string) string {
	result := anchorRe.ReplaceAllStringFunc(contentHTML, func(anchor string) string {
		href := anchorRe.FindStringSubmatch(anchor)[1]
		for _, provider := range embedProviders {
			if m := provider.pattern.FindStringSubmatch(href); m != nil && !reservedSegment(m[1]) {
				return buildEmbed(provider, m)
			}
		}
		return anchor
	})

	for _, provider := range embedProviders {
		p := provider
		result = p.pattern.ReplaceAllStringFunc(result, func(match string) string {
			m := p.pattern.FindStringSubmatch(match)
			if reservedSegment(m[1]) {
				return match
			}
			return buildEmbed(p, m)
		})
	}

	return result
}

// reservedSegment filters path segments of already-rewritten embed URLs that
// would otherwise re-match the looser clip patterns.
func reservedSegment(id string) bool {
	return id == "embed" || id == "e"
}

func buildEmbed(provider embedProvider, matches []string) string {
	aspect := "landscape"
	if provider.portrait {
		aspect = "portrait"
	}

	return fmt.Sprintf(
		`<div class="embed" data-embed="video" data-provider="%s" data-aspect="%s"><iframe src="%s" loading="lazy" frameborder="0" allowfullscreen=""></iframe></div>`,
		provider.name, aspect, provider.embedURL(matches))
}
