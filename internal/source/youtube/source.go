package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

const DefaultFeedBase = "https://www.youtube.com/feeds/videos.xml"

var (
	reChannelPath = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]{22})`)
	reChannelID   = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	reVideoID     = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`)
)

// Config holds YouTube source configuration.
type Config struct {
	FeedBase  string
	ItemLimit int
}

// Source reads a channel's public video feed, and falls back to scraping
// the configured page when no channel id can be resolved.
type Source struct {
	client    *fetch.Client
	feedBase  string
	itemLimit int
	page      *PageScraper
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	base := cfg.FeedBase
	if base == "" {
		base = DefaultFeedBase
	}
	logger = logger.With("source", domain.PlatformYouTube)
	return &Source{
		client:    client,
		feedBase:  base,
		itemLimit: cfg.ItemLimit,
		page:      NewPageScraper(client, cfg.ItemLimit, logger),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Source) Fetch(ctx context.Context, account domain.SourceAccount) ([]domain.ScrapedPost, error) {
	feedURL := s.FeedURL(account)
	if feedURL == "" {
		if account.ScrapingURL != "" {
			s.logger.Info("no channel id, scraping page", "account_id", account.ID, "url", account.ScrapingURL)
			return s.page.Scrape(ctx, account.ScrapingURL), nil
		}
		return nil, fmt.Errorf("youtube account %d: %w", account.ID, domain.ErrMissingSource)
	}

	feed, err := s.client.GetFeed(ctx, feedURL)
	if err != nil {
		s.logger.Warn("failed to fetch feed", "account_id", account.ID, "url", feedURL, "error", err)
		return nil, nil
	}

	items := fetch.Limit(feed.Items, s.itemLimit)
	posts := make([]domain.ScrapedPost, 0, len(items))
	for _, item := range items {
		if post, ok := s.transform(item); ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *Source) transform(item *gofeed.Item) (domain.ScrapedPost, bool) {
	videoID := fetch.Extension(item, "yt", "videoId")
	link := strings.TrimSpace(item.Link)
	if videoID == "" {
		if m := reVideoID.FindStringSubmatch(link); m != nil {
			videoID = m[1]
		}
	}
	if link == "" && videoID != "" {
		link = "https://www.youtube.com/watch?v=" + videoID
	}
	if link == "" {
		return domain.ScrapedPost{}, false
	}

	thumb := fetch.FeedThumbnail(item)
	var media []string
	if thumb != "" {
		media = []string{thumb}
	}

	return domain.ScrapedPost{
		Platform:     domain.PlatformYouTube,
		ExternalID:   videoID,
		Title:        textnorm.Normalize(item.Title),
		ThumbnailURL: thumb,
		MediaURLs:    media,
		URL:          link,
		PublishedAt:  fetch.FeedPublished(item, s.now()),
	}, true
}

// FeedURL resolves the channel's video feed: a well-formed stored feed URL,
// then a channel_id query parameter, then the stored channel id, then a
// /channel/UC… path segment. Returns "" when no id is found.
func (s *Source) FeedURL(account domain.SourceAccount) string {
	if isFeedURL(account.RSSURL) {
		return account.RSSURL
	}
	id := ChannelID(account)
	if id == "" {
		return ""
	}
	return s.feedBase + "?channel_id=" + id
}

// ChannelID finds a channel id in the account settings.
func ChannelID(account domain.SourceAccount) string {
	for _, raw := range []string{account.RSSURL, account.AccountURL} {
		if id := queryChannelID(raw); id != "" {
			return id
		}
	}
	if id := strings.TrimSpace(account.ChannelID); reChannelID.MatchString(id) {
		return id
	}
	if reChannelID.MatchString(account.AccountHandle) {
		return account.AccountHandle
	}
	for _, raw := range []string{account.RSSURL, account.AccountURL, account.ScrapingURL} {
		if m := reChannelPath.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}

func isFeedURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.HasSuffix(u.Path, "/feeds/videos.xml") && reChannelID.MatchString(u.Query().Get("channel_id"))
}

func queryChannelID(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("channel_id"); reChannelID.MatchString(id) {
		return id
	}
	return ""
}
