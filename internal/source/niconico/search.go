package niconico

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
)

// snapshotVideo mirrors legacyVideo field for field so it converts directly.
type snapshotVideo struct {
	ID           string `json:"contentId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
	StartTime    string `json:"startTime"`
}

type snapshotResponse struct {
	Meta struct {
		Status int `json:"status"`
	} `json:"meta"`
	Data []snapshotVideo `json:"data"`
}

// Search scopings, tried in order.
var searchTargets = []string{"tagsExact", "title,description,tags"}

type searchStrategy struct {
	client      *fetch.Client
	snapshotURL string
	userBase    string
	itemLimit   int
	logger      *slog.Logger
	now         func() time.Time
}

func newSearchStrategy(cfg Config, client *fetch.Client, logger *slog.Logger) *searchStrategy {
	return &searchStrategy{
		client:      client,
		snapshotURL: cfg.SnapshotURL,
		userBase:    cfg.UserBase,
		itemLimit:   cfg.ItemLimit,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *searchStrategy) Name() string { return "snapshot_search" }

func (s *searchStrategy) Attempt(ctx context.Context, ref ChannelRef) []domain.ScrapedPost {
	if ref.Name == "" {
		return nil
	}
	limit := s.itemLimit
	if limit <= 0 {
		limit = 20
	}

	for _, targets := range searchTargets {
		q := url.Values{}
		q.Set("q", ref.Name)
		q.Set("targets", targets)
		q.Set("fields", "contentId,title,description,thumbnailUrl,startTime")
		q.Set("_sort", "-startTime")
		q.Set("_limit", strconv.Itoa(limit))
		q.Set("_context", "politics_fetcher")
		searchURL := s.snapshotURL + "?" + q.Encode()

		var resp snapshotResponse
		if err := s.client.GetJSON(ctx, searchURL, &resp); err != nil {
			s.logger.Debug("snapshot search failed", "targets", targets, "error", err)
			continue
		}

		items := make([]legacyVideo, 0, len(resp.Data))
		for _, v := range resp.Data {
			items = append(items, legacyVideo(v))
		}
		if posts := videoPosts(items, s.userBase, s.now()); len(posts) > 0 {
			return posts
		}
	}
	return nil
}
