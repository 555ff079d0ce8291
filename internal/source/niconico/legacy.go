package niconico

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/textnorm"
)

type legacyVideo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
	StartTime    string `json:"startTime"`
}

type legacyResponse struct {
	Data struct {
		Items []legacyVideo `json:"items"`
	} `json:"data"`
}

type legacyAPIStrategy struct {
	client    *fetch.Client
	apiBase   string
	userBase  string
	itemLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func newLegacyAPIStrategy(cfg Config, client *fetch.Client, logger *slog.Logger) *legacyAPIStrategy {
	return &legacyAPIStrategy{
		client:    client,
		apiBase:   cfg.LegacyAPIBase,
		userBase:  cfg.UserBase,
		itemLimit: cfg.ItemLimit,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *legacyAPIStrategy) Name() string { return "legacy_channel_api" }

func (s *legacyAPIStrategy) Attempt(ctx context.Context, ref ChannelRef) []domain.ScrapedPost {
	if ref.Kind == RefUser || ref.Slug == "" {
		return nil
	}
	limit := s.itemLimit
	if limit <= 0 {
		limit = 20
	}
	apiURL := fmt.Sprintf("%s/channels/%s/videos?limit=%d", s.apiBase, url.PathEscape(ref.Slug), limit)

	var resp legacyResponse
	if err := s.client.GetJSON(ctx, apiURL, &resp); err != nil {
		s.logger.Debug("legacy channel api failed", "url", apiURL, "error", err)
		return nil
	}
	return videoPosts(resp.Data.Items, s.userBase, s.now())
}

func videoPosts(items []legacyVideo, userBase string, now time.Time) []domain.ScrapedPost {
	posts := make([]domain.ScrapedPost, 0, len(items))
	for _, v := range items {
		if v.ID == "" {
			continue
		}
		post := domain.ScrapedPost{
			Platform:     domain.PlatformNiconico,
			ExternalID:   v.ID,
			Title:        textnorm.Normalize(v.Title),
			Content:      textnorm.Normalize(fetch.StripHTML(v.Description)),
			ThumbnailURL: v.ThumbnailURL,
			URL:          watchURL(userBase, v.ID),
			PublishedAt:  fetch.ParseTime(v.StartTime, now),
		}
		if v.ThumbnailURL != "" {
			post.MediaURLs = []string{v.ThumbnailURL}
		}
		posts = append(posts, post)
	}
	return posts
}
