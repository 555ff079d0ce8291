package niconico

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

// feedReader converts RSS items into posts. Shared by the user tier and
// the RSS guesses of the scrape tier.
type feedReader struct {
	client    *fetch.Client
	itemLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func (r *feedReader) read(ctx context.Context, feedURL string) []domain.ScrapedPost {
	feed, err := r.client.GetFeed(ctx, feedURL)
	if err != nil {
		r.logger.Debug("failed to fetch feed", "url", feedURL, "error", err)
		return nil
	}

	items := fetch.Limit(feed.Items, r.itemLimit)
	posts := make([]domain.ScrapedPost, 0, len(items))
	for _, item := range items {
		if post, ok := r.transform(item); ok {
			posts = append(posts, post)
		}
	}
	return posts
}

func (r *feedReader) transform(item *gofeed.Item) (domain.ScrapedPost, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.ScrapedPost{}, false
	}

	thumb := fetch.FeedThumbnail(item)
	post := domain.ScrapedPost{
		Platform:     domain.PlatformNiconico,
		ExternalID:   contentID(link),
		Title:        textnorm.Normalize(item.Title),
		Content:      textnorm.Normalize(fetch.StripHTML(item.Description)),
		ThumbnailURL: thumb,
		URL:          link,
		PublishedAt:  fetch.FeedPublished(item, r.now()),
	}
	if thumb != "" {
		post.MediaURLs = []string{thumb}
	}
	return post, true
}

// contentID extracts a video/live id (sm123, so123, lv123) or falls back
// to the last path segment.
func contentID(link string) string {
	if m := reContentID.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	trimmed := strings.TrimRight(strings.SplitN(link, "?", 2)[0], "/")
	if i := strings.Index(trimmed, "://"); i >= 0 && !strings.Contains(trimmed[i+3:], "/") {
		return ""
	}
	return path.Base(trimmed)
}

type userFeedStrategy struct {
	feeds    *feedReader
	userBase string
}

func newUserFeedStrategy(cfg Config, client *fetch.Client, logger *slog.Logger) *userFeedStrategy {
	return &userFeedStrategy{
		feeds:    &feedReader{client: client, itemLimit: cfg.ItemLimit, logger: logger, now: time.Now},
		userBase: cfg.UserBase,
	}
}

func (s *userFeedStrategy) Name() string { return "user_rss" }

func (s *userFeedStrategy) Attempt(ctx context.Context, ref ChannelRef) []domain.ScrapedPost {
	if ref.Kind != RefUser {
		return nil
	}
	return s.feeds.read(ctx, s.userBase+"/user/"+ref.UserID+"/video?rss=2.0")
}
