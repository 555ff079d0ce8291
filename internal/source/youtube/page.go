package youtube

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

// Embedded page state carries entries like
// "videoId":"xxxxxxxxxxx", ... "title":{"runs":[{"text":"..."}]
var reVideoEntry = regexp.MustCompile(`"videoId":"([A-Za-z0-9_-]{11})".{0,600}?"title":\{"runs":\[\{"text":"((?:[^"\\]|\\.)*)"`)

// PageScraper is the lower-reliability fallback used when an account is
// configured with a page URL instead of a feed.
type PageScraper struct {
	client    *fetch.Client
	itemLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func NewPageScraper(client *fetch.Client, itemLimit int, logger *slog.Logger) *PageScraper {
	return &PageScraper{client: client, itemLimit: itemLimit, logger: logger, now: time.Now}
}

// Scrape extracts videos from the page; failures yield an empty result.
func (p *PageScraper) Scrape(ctx context.Context, pageURL string) []domain.ScrapedPost {
	body, err := p.client.GetBytes(ctx, pageURL)
	if err != nil {
		p.logger.Warn("failed to fetch page", "url", pageURL, "error", err)
		return nil
	}

	seen := make(map[string]bool)
	var posts []domain.ScrapedPost
	for _, m := range reVideoEntry.FindAllStringSubmatch(string(body), -1) {
		if p.itemLimit > 0 && len(posts) >= p.itemLimit {
			break
		}
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true

		var title string
		if err := json.Unmarshal([]byte(`"`+m[2]+`"`), &title); err != nil {
			title = m[2]
		}
		posts = append(posts, domain.ScrapedPost{
			Platform:     domain.PlatformYouTube,
			ExternalID:   id,
			Title:        textnorm.Normalize(title),
			ThumbnailURL: "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
			MediaURLs:    []string{"https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"},
			URL:          "https://www.youtube.com/watch?v=" + id,
			PublishedAt:  p.now(),
		})
	}
	return posts
}
