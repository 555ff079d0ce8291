package note

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

const DefaultBaseURL = "https://note.com"

var (
	reNoteKey    = regexp.MustCompile(`/n/(n[0-9a-z]+)`)
	reNoteHandle = regexp.MustCompile(`note\.com/([A-Za-z0-9_-]+)`)
)

// Eyecatch selectors used by note article pages.
var eyecatchSelectors = []string{".o-noteEyecatch img", "img.p-noteEyecatch", ".m-noteEyecatch img", "figure img"}

// Config holds note.com source configuration.
type Config struct {
	BaseURL   string
	ItemLimit int
	// PageFetchLimit caps how many article pages are fetched for thumbnails.
	PageFetchLimit int
	PageFetchDelay time.Duration
}

// Source reads a note.com creator via RSS, with an HTML profile fallback.
type Source struct {
	client         *fetch.Client
	baseURL        string
	itemLimit      int
	pageFetchLimit int
	pageFetchDelay time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Source{
		client:         client,
		baseURL:        base,
		itemLimit:      cfg.ItemLimit,
		pageFetchLimit: cfg.PageFetchLimit,
		pageFetchDelay: cfg.PageFetchDelay,
		logger:         logger.With("source", domain.PlatformNote),
		now:            time.Now,
	}
}

func (s *Source) Fetch(ctx context.Context, account domain.SourceAccount) ([]domain.ScrapedPost, error) {
	handle := s.handle(account)
	feedURL := account.RSSURL
	if feedURL == "" && handle != "" {
		feedURL = fmt.Sprintf("%s/%s/rss", s.baseURL, handle)
	}
	if feedURL == "" {
		return nil, fmt.Errorf("note account %d: %w", account.ID, domain.ErrMissingSource)
	}

	posts := s.fromFeed(ctx, feedURL)
	if len(posts) > 0 {
		return posts, nil
	}

	if handle == "" {
		return nil, nil
	}
	profileURL := fmt.Sprintf("%s/%s", s.baseURL, handle)
	s.logger.Info("rss returned nothing, scraping profile", "account_id", account.ID, "url", profileURL)
	return s.fromProfile(ctx, profileURL), nil
}

func (s *Source) fromFeed(ctx context.Context, feedURL string) []domain.ScrapedPost {
	feed, err := s.client.GetFeed(ctx, feedURL)
	if err != nil {
		s.logger.Warn("failed to fetch feed", "url", feedURL, "error", err)
		return nil
	}

	items := fetch.Limit(feed.Items, s.itemLimit)
	posts := make([]domain.ScrapedPost, 0, len(items))
	for _, item := range items {
		if post, ok := s.transform(item); ok {
			posts = append(posts, post)
		}
	}

	s.fillThumbnails(ctx, posts)
	return posts
}

func (s *Source) transform(item *gofeed.Item) (domain.ScrapedPost, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.ScrapedPost{}, false
	}

	key := ""
	if m := reNoteKey.FindStringSubmatch(link); m != nil {
		key = m[1]
	}

	body := item.Description
	if body == "" {
		body = item.Content
	}

	thumb := fetch.FeedThumbnail(item)
	post := domain.ScrapedPost{
		Platform:     domain.PlatformNote,
		ExternalID:   key,
		Title:        textnorm.Normalize(item.Title),
		Content:      textnorm.Normalize(fetch.StripHTML(body)),
		ThumbnailURL: thumb,
		URL:          link,
		PublishedAt:  fetch.FeedPublished(item, s.now()),
	}
	if thumb != "" {
		post.MediaURLs = []string{thumb}
	}
	return post, true
}

// fillThumbnails fetches article pages for posts still lacking a thumbnail,
// bounded by pageFetchLimit and paced by pageFetchDelay.
func (s *Source) fillThumbnails(ctx context.Context, posts []domain.ScrapedPost) {
	limiter := rate.NewLimiter(rate.Every(s.pageFetchDelay), 1)

	for i := range posts {
		if i >= s.pageFetchLimit {
			return
		}
		if posts[i].ThumbnailURL != "" {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		doc, err := s.client.GetDocument(ctx, posts[i].URL)
		if err != nil {
			s.logger.Debug("failed to fetch article page", "url", posts[i].URL, "error", err)
			continue
		}
		if img := fetch.PageImage(doc, eyecatchSelectors...); img != "" {
			posts[i].ThumbnailURL = img
			posts[i].MediaURLs = []string{img}
		}
	}
}

func (s *Source) fromProfile(ctx context.Context, profileURL string) []domain.ScrapedPost {
	doc, err := s.client.GetDocument(ctx, profileURL)
	if err != nil {
		s.logger.Warn("failed to fetch profile", "url", profileURL, "error", err)
		return nil
	}

	seen := make(map[string]bool)
	var posts []domain.ScrapedPost
	doc.Find(`a[href*="/n/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if s.itemLimit > 0 && len(posts) >= s.itemLimit {
			return false
		}
		href := fetch.Resolve(doc, a.AttrOr("href", ""))
		m := reNoteKey.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return true
		}
		title := textnorm.Normalize(a.AttrOr("title", a.Text()))
		if title == "" {
			return true
		}
		seen[m[1]] = true

		post := domain.ScrapedPost{
			Platform:    domain.PlatformNote,
			ExternalID:  m[1],
			Title:       title,
			URL:         href,
			PublishedAt: s.now(),
		}
		if img := a.Find("img").First(); img.Length() > 0 {
			if src := img.AttrOr("src", img.AttrOr("data-src", "")); src != "" {
				post.ThumbnailURL = fetch.Resolve(doc, src)
				post.MediaURLs = []string{post.ThumbnailURL}
			}
		}
		if t, ok := a.Closest("article, div").Find("time").First().Attr("datetime"); ok {
			post.PublishedAt = fetch.ParseTime(t, post.PublishedAt)
		}
		posts = append(posts, post)
		return true
	})
	return posts
}

func (s *Source) handle(account domain.SourceAccount) string {
	if h := strings.TrimPrefix(strings.TrimSpace(account.AccountHandle), "@"); h != "" {
		return h
	}
	if m := reNoteHandle.FindStringSubmatch(account.AccountURL); m != nil {
		return m[1]
	}
	return ""
}
