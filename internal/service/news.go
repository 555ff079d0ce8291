package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/metrics"
)

// NewsService stores articles and events from the configured list pages,
// insert-if-absent by URL.
type NewsService struct {
	sources   []NewsSource
	articles  ArticleStore
	events    EventStore
	syncState SyncStateStore
	delay     time.Duration
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

func NewNewsService(
	sources []NewsSource,
	articles ArticleStore,
	events EventStore,
	syncState SyncStateStore,
	delay time.Duration,
	logger *slog.Logger,
) *NewsService {
	return &NewsService{
		sources:   sources,
		articles:  articles,
		events:    events,
		syncState: syncState,
		delay:     delay,
		logger:    logger.With("component", "news"),
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

func (s *NewsService) Sync(ctx context.Context) domain.Summary {
	if len(s.sources) == 0 {
		return domain.Summary{Success: true, Message: "no news sources configured"}
	}

	results := make([]domain.AccountResult, 0, len(s.sources))
	for i, src := range s.sources {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				for _, rest := range s.sources[i:] {
					results = append(results, domain.AccountResult{Source: rest.ID(), Error: fmt.Sprintf("not scraped: %v", err)})
				}
				break
			}
		}
		results = append(results, s.syncSource(ctx, src))
	}

	summary := summarize(results)
	summary.Message = fmt.Sprintf("synced %d news sources: %d new items", len(results), summary.Count)
	return summary
}

func (s *NewsService) syncSource(ctx context.Context, src NewsSource) domain.AccountResult {
	start := time.Now()
	res := domain.AccountResult{Source: src.ID()}
	logger := s.logger.With("source", src.ID())

	articles, err := src.FetchArticles(ctx)
	if err != nil {
		res.Error = err.Error()
		logger.Warn("failed to fetch articles", "error", err)
		res.Duration = time.Since(start)
		return res
	}
	events, err := src.FetchEvents(ctx)
	if err != nil {
		res.Error = err.Error()
		logger.Warn("failed to fetch events", "error", err)
		res.Duration = time.Since(start)
		return res
	}
	res.Fetched = len(articles) + len(events)

	var newArticles, newEvents int
	for i := range articles {
		_, err := s.articles.Insert(ctx, &articles[i])
		if s.count(&res, logger, articles[i].URL, err) {
			newArticles++
		}
	}
	for i := range events {
		_, err := s.events.Insert(ctx, &events[i])
		if s.count(&res, logger, events[i].URL, err) {
			newEvents++
		}
	}
	metrics.NewsItemsInserted.WithLabelValues(src.ID(), "article").Add(float64(newArticles))
	metrics.NewsItemsInserted.WithLabelValues(src.ID(), "event").Add(float64(newEvents))

	if err := s.updateSyncState(ctx, src.ID(), res.Inserted); err != nil {
		logger.Warn("failed to update sync state", "error", err)
	}

	res.Duration = time.Since(start)
	logger.Info("news source synced",
		"fetched", res.Fetched,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res
}

func (s *NewsService) count(res *domain.AccountResult, logger *slog.Logger, url string, err error) bool {
	switch {
	case err == nil:
		res.Inserted++
		return true
	case errors.Is(err, domain.ErrDuplicate):
		res.Skipped++
	default:
		res.Failed++
		logger.Warn("failed to store news item", "url", url, "error", err)
	}
	return false
}

func (s *NewsService) updateSyncState(ctx context.Context, sourceID string, inserted int) error {
	state, err := s.syncState.Get(ctx, sourceID)
	if err != nil {
		return err
	}

	state.SourceID = sourceID
	state.LastSyncedAt = s.now()
	state.TotalSynced += int64(inserted)

	return s.syncState.Update(ctx, state)
}
