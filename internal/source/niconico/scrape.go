package niconico

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

var reListLink = regexp.MustCompile(`/(?:video|live|watch|articles/news|blomaga)/([A-Za-z0-9_-]+)/?$`)

type listEntry struct {
	id    string
	url   string
	title string
	thumb string
}

// scrapeStrategy is the last resort: guessed RSS URLs first, then the
// channel's HTML list pages.
type scrapeStrategy struct {
	client      *fetch.Client
	feeds       *feedReader
	plusBase    string
	legacyBase  string
	itemLimit   int
	detailLimit int
	detailDelay time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func newScrapeStrategy(cfg Config, client *fetch.Client, logger *slog.Logger) *scrapeStrategy {
	return &scrapeStrategy{
		client:      client,
		feeds:       &feedReader{client: client, itemLimit: cfg.ItemLimit, logger: logger, now: time.Now},
		plusBase:    cfg.PlusBase,
		legacyBase:  cfg.LegacyChannelBase,
		itemLimit:   cfg.ItemLimit,
		detailLimit: cfg.DetailLimit,
		detailDelay: cfg.DetailDelay,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *scrapeStrategy) Name() string { return "html_scrape" }

func (s *scrapeStrategy) Attempt(ctx context.Context, ref ChannelRef) []domain.ScrapedPost {
	if ref.Kind == RefUser || ref.Slug == "" {
		return nil
	}

	for _, feedURL := range s.feedGuesses(ref) {
		if posts := s.feeds.read(ctx, feedURL); len(posts) > 0 {
			return posts
		}
	}

	entries := s.collect(ctx, ref)
	if len(entries) == 0 {
		return nil
	}
	return s.details(ctx, entries)
}

func (s *scrapeStrategy) feedGuesses(ref ChannelRef) []string {
	return []string{
		s.legacyBase + "/" + ref.Slug + "/video?rss=2.0",
		s.legacyBase + "/" + ref.Slug + "/blomaga?rss=2.0",
		s.plusBase + "/" + ref.Slug + "/rss",
	}
}

func (s *scrapeStrategy) listPages(ref ChannelRef) []string {
	if ref.Kind == RefChannelPlus {
		return []string{
			s.plusBase + "/" + ref.Slug + "/videos",
			s.plusBase + "/" + ref.Slug + "/lives",
			s.plusBase + "/" + ref.Slug + "/articles/news",
		}
	}
	return []string{
		s.legacyBase + "/" + ref.Slug + "/video",
		s.legacyBase + "/" + ref.Slug + "/live",
		s.legacyBase + "/" + ref.Slug + "/blomaga",
	}
}

func (s *scrapeStrategy) collect(ctx context.Context, ref ChannelRef) []listEntry {
	seen := make(map[string]bool)
	var entries []listEntry

	for _, pageURL := range s.listPages(ref) {
		if s.itemLimit > 0 && len(entries) >= s.itemLimit {
			break
		}
		doc, err := s.client.GetDocument(ctx, pageURL)
		if err != nil {
			s.logger.Debug("failed to fetch list page", "url", pageURL, "error", err)
			continue
		}
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if s.itemLimit > 0 && len(entries) >= s.itemLimit {
				return false
			}
			href := fetch.Resolve(doc, a.AttrOr("href", ""))
			link := strings.SplitN(href, "?", 2)[0]
			m := reListLink.FindStringSubmatch(link)
			if m == nil || seen[link] {
				return true
			}
			seen[link] = true

			entry := listEntry{
				id:    m[1],
				url:   link,
				title: textnorm.Normalize(a.AttrOr("title", a.Text())),
			}
			if img := a.Find("img").First(); img.Length() > 0 {
				if src := img.AttrOr("src", img.AttrOr("data-src", "")); src != "" {
					entry.thumb = fetch.Resolve(doc, src)
				}
			}
			entries = append(entries, entry)
			return true
		})
	}
	return entries
}

// details fetches the first detailLimit entries in full and keeps the rest
// as stubs built from the list page.
func (s *scrapeStrategy) details(ctx context.Context, entries []listEntry) []domain.ScrapedPost {
	limiter := rate.NewLimiter(rate.Every(s.detailDelay), 1)
	posts := make([]domain.ScrapedPost, 0, len(entries))

	for i, e := range entries {
		post := stubPost(e, s.now())
		if i < s.detailLimit && ctx.Err() == nil {
			if err := limiter.Wait(ctx); err == nil {
				s.enrich(ctx, &post)
			}
		}
		posts = append(posts, post)
	}
	return posts
}

func stubPost(e listEntry, now time.Time) domain.ScrapedPost {
	title := e.title
	if title == "" {
		title = e.id
	}
	post := domain.ScrapedPost{
		Platform:     domain.PlatformNiconico,
		ExternalID:   e.id,
		Title:        title,
		ThumbnailURL: e.thumb,
		URL:          e.url,
		PublishedAt:  now,
	}
	if e.thumb != "" {
		post.MediaURLs = []string{e.thumb}
	}
	return post
}

func (s *scrapeStrategy) enrich(ctx context.Context, post *domain.ScrapedPost) {
	doc, err := s.client.GetDocument(ctx, post.URL)
	if err != nil {
		s.logger.Debug("failed to fetch detail page", "url", post.URL, "error", err)
		return
	}

	if title := textnorm.Normalize(fetch.Meta(doc, "og:title")); title != "" {
		post.Title = title
	}
	if desc := textnorm.Normalize(fetch.Meta(doc, "og:description", "description")); desc != "" {
		post.Content = desc
	}
	if img := fetch.PageImage(doc); img != "" {
		post.ThumbnailURL = img
		post.MediaURLs = []string{img}
	}
	if published := fetch.Meta(doc, "article:published_time", "video:release_date", "uploadDate", "datePublished"); published != "" {
		post.PublishedAt = fetch.ParseTime(published, post.PublishedAt)
	} else if t, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		post.PublishedAt = fetch.ParseTime(t, post.PublishedAt)
	}
}
