package niconico

import (
	"context"
	"log/slog"
	"regexp"

	"politics_fetcher/internal/fetch"
)

// SiteIDResolver maps a channel-plus slug to its numeric fanclub site id.
// The lookup depends on undocumented page state, so it sits behind this
// interface and can be replaced without touching the other tiers.
type SiteIDResolver interface {
	ResolveSiteID(ctx context.Context, ref ChannelRef) (string, bool)
}

var siteIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"fanclub_site_id"\s*:\s*"?(\d+)`),
	regexp.MustCompile(`"fanclubSiteId"\s*:\s*"?(\d+)`),
	regexp.MustCompile(`data-fanclub-site-id="(\d+)"`),
	regexp.MustCompile(`fanclub_sites/(\d+)`),
}

// PageSiteIDResolver reads the id out of embedded state JSON or data
// attributes on a few candidate channel pages.
type PageSiteIDResolver struct {
	client   *fetch.Client
	plusBase string
	logger   *slog.Logger
}

func NewPageSiteIDResolver(client *fetch.Client, plusBase string, logger *slog.Logger) *PageSiteIDResolver {
	return &PageSiteIDResolver{client: client, plusBase: plusBase, logger: logger}
}

func (r *PageSiteIDResolver) ResolveSiteID(ctx context.Context, ref ChannelRef) (string, bool) {
	if ref.Slug == "" {
		return "", false
	}
	candidates := []string{
		r.plusBase + "/" + ref.Slug,
		r.plusBase + "/" + ref.Slug + "/videos",
		r.plusBase + "/" + ref.Slug + "/lives",
	}
	for _, u := range candidates {
		body, err := r.client.GetBytes(ctx, u)
		if err != nil {
			r.logger.Debug("site id candidate failed", "url", u, "error", err)
			if ctx.Err() != nil {
				return "", false
			}
			continue
		}
		if id, ok := ExtractSiteID(body); ok {
			return id, true
		}
	}
	return "", false
}

// ExtractSiteID finds a fanclub site id in raw page markup.
func ExtractSiteID(page []byte) (string, bool) {
	for _, re := range siteIDPatterns {
		if m := re.FindSubmatch(page); m != nil {
			return string(m[1]), true
		}
	}
	return "", false
}
