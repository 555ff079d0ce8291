// Package website reads blogs and personal sites: a discovered RSS/Atom feed
// when the page advertises one, otherwise a single post from the page's
// Open Graph metadata.
package website

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

var reAmeblo = regexp.MustCompile(`ameblo\.jp/([A-Za-z0-9_-]+)`)

const feedLinkSelector = `link[rel="alternate"][type*="rss"], link[rel="alternate"][type*="atom"], link[rel="alternate"][type*="feed"]`

type Config struct {
	ItemLimit int
}

type Source struct {
	client    *fetch.Client
	itemLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:    client,
		itemLimit: cfg.ItemLimit,
		logger:    logger.With("source", domain.PlatformWebsite),
		now:       time.Now,
	}
}

func (s *Source) Fetch(ctx context.Context, account domain.SourceAccount) ([]domain.ScrapedPost, error) {
	pageURL := account.ScrapingURL
	if pageURL == "" {
		pageURL = account.AccountURL
	}
	feedURL := account.RSSURL
	if feedURL == "" {
		feedURL = knownFeed(pageURL)
	}
	if feedURL == "" && pageURL == "" {
		return nil, fmt.Errorf("website account %d: %w", account.ID, domain.ErrMissingSource)
	}

	if feedURL != "" {
		if posts := s.fromFeed(ctx, feedURL); len(posts) > 0 {
			return posts, nil
		}
	}
	if pageURL == "" {
		return nil, nil
	}

	doc, err := s.client.GetDocument(ctx, pageURL)
	if err != nil {
		s.logger.Warn("failed to fetch page", "account_id", account.ID, "url", pageURL, "error", err)
		return nil, nil
	}

	if discovered := DiscoverFeed(doc); discovered != "" && discovered != feedURL {
		s.logger.Debug("discovered feed", "account_id", account.ID, "feed", discovered)
		if posts := s.fromFeed(ctx, discovered); len(posts) > 0 {
			return posts, nil
		}
	}

	if post, ok := s.fromPage(doc, pageURL); ok {
		return []domain.ScrapedPost{post}, nil
	}
	return nil, nil
}

// DiscoverFeed returns the first feed advertised by <link rel="alternate">.
func DiscoverFeed(doc *goquery.Document) string {
	href, ok := doc.Find(feedLinkSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	return fetch.Resolve(doc, href)
}

// knownFeed maps blog hosts with a fixed feed layout to their feed URL.
func knownFeed(pageURL string) string {
	if m := reAmeblo.FindStringSubmatch(pageURL); m != nil {
		return "https://rssblog.ameba.jp/" + m[1] + "/rss20.xml"
	}
	return ""
}

func (s *Source) fromFeed(ctx context.Context, feedURL string) []domain.ScrapedPost {
	feed, err := s.client.GetFeed(ctx, feedURL)
	if err != nil {
		s.logger.Debug("failed to fetch feed", "url", feedURL, "error", err)
		return nil
	}

	items := fetch.Limit(feed.Items, s.itemLimit)
	posts := make([]domain.ScrapedPost, 0, len(items))
	for _, item := range items {
		if post, ok := s.transform(item); ok {
			posts = append(posts, post)
		}
	}
	return posts
}

func (s *Source) transform(item *gofeed.Item) (domain.ScrapedPost, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.ScrapedPost{}, false
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}
	thumb := fetch.FeedThumbnail(item)
	post := domain.ScrapedPost{
		Platform:     domain.PlatformWebsite,
		ExternalID:   strings.TrimSpace(item.GUID),
		Title:        textnorm.Normalize(item.Title),
		Content:      textnorm.Normalize(fetch.StripHTML(body)),
		ThumbnailURL: thumb,
		URL:          link,
		PublishedAt:  fetch.FeedPublished(item, s.now()),
	}
	if post.ExternalID == link {
		post.ExternalID = ""
	}
	if thumb != "" {
		post.MediaURLs = []string{thumb}
	}
	return post, true
}

func (s *Source) fromPage(doc *goquery.Document, pageURL string) (domain.ScrapedPost, bool) {
	title := fetch.Meta(doc, "og:title", "twitter:title")
	if title == "" {
		title = doc.Find("title").First().Text()
	}
	title = textnorm.Normalize(title)
	if title == "" {
		return domain.ScrapedPost{}, false
	}

	link := pageURL
	if og := fetch.Meta(doc, "og:url"); og != "" {
		link = fetch.Resolve(doc, og)
	}

	post := domain.ScrapedPost{
		Platform:     domain.PlatformWebsite,
		Title:        title,
		Content:      textnorm.Normalize(fetch.Meta(doc, "og:description", "description")),
		ThumbnailURL: fetch.PageImage(doc),
		URL:          link,
		PublishedAt:  fetch.ParseTime(fetch.Meta(doc, "article:published_time", "article:modified_time"), s.now()),
	}
	if post.ThumbnailURL != "" {
		post.MediaURLs = []string{post.ThumbnailURL}
	}
	return post, true
}
