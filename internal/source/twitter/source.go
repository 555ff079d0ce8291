package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

var (
	reStatusID = regexp.MustCompile(`/status(?:es)?/(\d+)`)
	reHandle   = regexp.MustCompile(`(?:twitter\.com|x\.com)/@?([A-Za-z0-9_]{1,15})`)
)

// CanonicalTextFetcher resolves the full text of a truncated post.
type CanonicalTextFetcher interface {
	FetchCanonicalText(ctx context.Context, externalID string) (string, bool)
}

// Config holds Twitter/X RSS source configuration.
type Config struct {
	// RSSBase is an RSS bridge root; the feed URL is RSSBase/{handle}/rss.
	RSSBase   string
	ItemLimit int
}

// Source reads a Twitter/X account through an RSS bridge.
type Source struct {
	client    *fetch.Client
	canonical CanonicalTextFetcher
	rssBase   string
	itemLimit int
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Twitter source. canonical may be nil to disable lookups.
func New(cfg Config, client *fetch.Client, canonical CanonicalTextFetcher, logger *slog.Logger) *Source {
	return &Source{
		client:    client,
		canonical: canonical,
		rssBase:   strings.TrimRight(cfg.RSSBase, "/"),
		itemLimit: cfg.ItemLimit,
		logger:    logger.With("source", domain.PlatformTwitter),
		now:       time.Now,
	}
}

// Fetch returns the account's latest posts.
func (s *Source) Fetch(ctx context.Context, account domain.SourceAccount) ([]domain.ScrapedPost, error) {
	handle := Handle(account)
	feedURL := account.RSSURL
	if feedURL == "" {
		if handle == "" || s.rssBase == "" {
			return nil, fmt.Errorf("twitter account %d: %w", account.ID, domain.ErrMissingSource)
		}
		feedURL = fmt.Sprintf("%s/%s/rss", s.rssBase, handle)
	}

	feed, err := s.client.GetFeed(ctx, feedURL)
	if err != nil {
		s.logger.Warn("failed to fetch feed", "account_id", account.ID, "url", feedURL, "error", err)
		return nil, nil
	}

	items := fetch.Limit(feed.Items, s.itemLimit)
	posts := make([]domain.ScrapedPost, 0, len(items))
	for _, item := range items {
		post, ok := s.transform(ctx, handle, item)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}

	s.logger.Debug("fetched feed", "account_id", account.ID, "items", len(feed.Items), "posts", len(posts))
	return posts, nil
}

func (s *Source) transform(ctx context.Context, handle string, item *gofeed.Item) (domain.ScrapedPost, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		link = strings.TrimSpace(item.GUID)
	}

	id := ""
	if m := reStatusID.FindStringSubmatch(link); m != nil {
		id = m[1]
	} else if m := reStatusID.FindStringSubmatch(item.GUID); m != nil {
		id = m[1]
	}

	permalink := link
	if id != "" && handle != "" {
		permalink = fmt.Sprintf("https://x.com/%s/status/%s", handle, id)
	}
	if permalink == "" || !strings.HasPrefix(permalink, "http") {
		s.logger.Debug("skipping item without url", "guid", item.GUID)
		return domain.ScrapedPost{}, false
	}

	raw := item.Title
	if strings.TrimSpace(raw) == "" {
		raw = fetch.StripHTML(item.Description)
	}
	text := textnorm.Normalize(raw)

	if id != "" && s.canonical != nil && textnorm.LooksTruncated(raw) {
		if full, ok := s.canonical.FetchCanonicalText(ctx, id); ok {
			text = textnorm.Normalize(full)
		}
	}

	thumb := fetch.FeedThumbnail(item)
	var media []string
	if thumb != "" {
		media = append(media, thumb)
	}

	return domain.ScrapedPost{
		Platform:     domain.PlatformTwitter,
		ExternalID:   id,
		Title:        text,
		ThumbnailURL: thumb,
		MediaURLs:    media,
		URL:          permalink,
		PublishedAt:  fetch.FeedPublished(item, s.now()),
	}, true
}

// Handle extracts the screen name from the account settings.
func Handle(account domain.SourceAccount) string {
	h := strings.TrimPrefix(strings.TrimSpace(account.AccountHandle), "@")
	if h != "" {
		return h
	}
	if m := reHandle.FindStringSubmatch(account.AccountURL); m != nil {
		return m[1]
	}
	return ""
}
