package niconico

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

type plusVideo struct {
	ContentCode  string `json:"content_code"`
	Title        string `json:"title"`
	ReleasedAt   string `json:"released_at"`
	ThumbnailURL string `json:"thumbnail_url"`
	Description  string `json:"description"`
}

type plusVideoResponse struct {
	Data struct {
		VideoPages struct {
			List []plusVideo `json:"list"`
		} `json:"video_pages"`
	} `json:"data"`
}

type plusArticle struct {
	ArticleCode  string `json:"article_code"`
	Title        string `json:"title"`
	PublishedAt  string `json:"published_at"`
	ThumbnailURL string `json:"thumbnail_url"`
	Contents     string `json:"contents"`
}

type plusArticleResponse struct {
	Data struct {
		Articles struct {
			List []plusArticle `json:"list"`
		} `json:"articles"`
	} `json:"data"`
}

// channelPlusStrategy unions videos, lives and news articles from the
// channel-plus API.
type channelPlusStrategy struct {
	client    *fetch.Client
	resolver  SiteIDResolver
	plusBase  string
	apiBase   string
	itemLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func newChannelPlusStrategy(cfg Config, client *fetch.Client, resolver SiteIDResolver, logger *slog.Logger) *channelPlusStrategy {
	return &channelPlusStrategy{
		client:    client,
		resolver:  resolver,
		plusBase:  cfg.PlusBase,
		apiBase:   cfg.PlusAPIBase,
		itemLimit: cfg.ItemLimit,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *channelPlusStrategy) Name() string { return "channel_plus_api" }

func (s *channelPlusStrategy) Attempt(ctx context.Context, ref ChannelRef) []domain.ScrapedPost {
	if ref.Kind != RefChannelPlus || ref.Slug == "" {
		return nil
	}
	siteID, ok := s.resolver.ResolveSiteID(ctx, ref)
	if !ok {
		s.logger.Debug("fanclub site id not found", "slug", ref.Slug)
		return nil
	}

	perPage := s.itemLimit
	if perPage <= 0 {
		perPage = 20
	}
	base := fmt.Sprintf("%s/fanclub_sites/%s", s.apiBase, siteID)

	videos := s.videos(ctx, fmt.Sprintf("%s/video_pages?vod_type=0&sort=-released_at&page=1&per_page=%d", base, perPage), ref.Slug, "video")
	lives := s.videos(ctx, fmt.Sprintf("%s/live_pages?live_type=1&page=1&per_page=%d", base, perPage), ref.Slug, "live")
	articles := s.articles(ctx, fmt.Sprintf("%s/article_themes/news/articles?page=1&per_page=%d", base, perPage), ref.Slug)
	return interleave(perPage, videos, lives, articles)
}

// interleave takes one post from each list in turn until limit is reached,
// so a full video page cannot crowd out lives and articles.
func interleave(limit int, lists ...[]domain.ScrapedPost) []domain.ScrapedPost {
	var out []domain.ScrapedPost
	for i := 0; len(out) < limit; i++ {
		added := false
		for _, l := range lists {
			if i < len(l) && len(out) < limit {
				out = append(out, l[i])
				added = true
			}
		}
		if !added {
			break
		}
	}
	return out
}

func (s *channelPlusStrategy) videos(ctx context.Context, apiURL, slug, kind string) []domain.ScrapedPost {
	var resp plusVideoResponse
	if err := s.client.GetJSON(ctx, apiURL, &resp); err != nil {
		s.logger.Debug("channel plus request failed", "url", apiURL, "error", err)
		return nil
	}

	posts := make([]domain.ScrapedPost, 0, len(resp.Data.VideoPages.List))
	for _, v := range resp.Data.VideoPages.List {
		if v.ContentCode == "" {
			continue
		}
		post := domain.ScrapedPost{
			Platform:     domain.PlatformNiconico,
			ExternalID:   v.ContentCode,
			Title:        textnorm.Normalize(v.Title),
			Content:      textnorm.Normalize(v.Description),
			ThumbnailURL: v.ThumbnailURL,
			URL:          fmt.Sprintf("%s/%s/%s/%s", s.plusBase, slug, kind, v.ContentCode),
			PublishedAt:  fetch.ParseTime(v.ReleasedAt, s.now()),
		}
		if v.ThumbnailURL != "" {
			post.MediaURLs = []string{v.ThumbnailURL}
		}
		posts = append(posts, post)
	}
	return posts
}

func (s *channelPlusStrategy) articles(ctx context.Context, apiURL, slug string) []domain.ScrapedPost {
	var resp plusArticleResponse
	if err := s.client.GetJSON(ctx, apiURL, &resp); err != nil {
		s.logger.Debug("channel plus request failed", "url", apiURL, "error", err)
		return nil
	}

	posts := make([]domain.ScrapedPost, 0, len(resp.Data.Articles.List))
	for _, a := range resp.Data.Articles.List {
		if a.ArticleCode == "" {
			continue
		}
		post := domain.ScrapedPost{
			Platform:     domain.PlatformNiconico,
			ExternalID:   a.ArticleCode,
			Title:        textnorm.Normalize(a.Title),
			Content:      textnorm.Normalize(fetch.StripHTML(a.Contents)),
			ThumbnailURL: a.ThumbnailURL,
			URL:          fmt.Sprintf("%s/%s/articles/news/%s", s.plusBase, slug, a.ArticleCode),
			PublishedAt:  fetch.ParseTime(a.PublishedAt, s.now()),
		}
		if a.ThumbnailURL != "" {
			post.MediaURLs = []string{a.ThumbnailURL}
		}
		posts = append(posts, post)
	}
	return posts
}
