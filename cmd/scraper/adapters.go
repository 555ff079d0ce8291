package main

import (
	"log/slog"

	"politics_fetcher/internal/config"
	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/service"
	"politics_fetcher/internal/source/news"
	"politics_fetcher/internal/source/niconico"
	"politics_fetcher/internal/source/note"
	"politics_fetcher/internal/source/twitter"
	"politics_fetcher/internal/source/website"
	"politics_fetcher/internal/source/youtube"
	"politics_fetcher/internal/textnorm"
)

func newFetchClient(cfg config.HTTPConfig, logger *slog.Logger) *fetch.Client {
	return fetch.NewClient(fetch.Config{
		Timeout:         cfg.Timeout,
		UserAgent:       cfg.UserAgent,
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialBackoff:  cfg.Retry.InitialBackoff,
		MaxBackoff:      cfg.Retry.MaxBackoff,
		BreakerFailures: cfg.Breaker.ConsecutiveFailures,
		BreakerTimeout:  cfg.Breaker.OpenTimeout,
	}, logger)
}

func buildAdapters(cfg *config.Config, client *fetch.Client, logger *slog.Logger) service.Adapters {
	var canonical twitter.CanonicalTextFetcher
	if !cfg.Scrape.CanonicalText.Disabled {
		canonical = textnorm.NewCanonicalFetcher(
			client,
			cfg.Scrape.CanonicalText.Endpoint,
			cfg.Scrape.CanonicalText.Timeout,
			logger,
		)
	}

	nico := cfg.Endpoints.Niconico
	return service.Adapters{
		domain.PlatformTwitter: twitter.New(twitter.Config{
			RSSBase:   cfg.Endpoints.TwitterRSSBase,
			ItemLimit: cfg.Scrape.FeedItemLimit,
		}, client, canonical, logger),
		domain.PlatformYouTube: youtube.New(youtube.Config{
			FeedBase:  cfg.Endpoints.YouTubeFeedBase,
			ItemLimit: cfg.Scrape.FeedItemLimit,
		}, client, logger),
		domain.PlatformNote: note.New(note.Config{
			BaseURL:        cfg.Endpoints.NoteBase,
			ItemLimit:      cfg.Scrape.FeedItemLimit,
			PageFetchLimit: cfg.Scrape.NotePageFetchLimit,
			PageFetchDelay: cfg.Scrape.DetailDelay,
		}, client, logger),
		domain.PlatformNiconico: niconico.New(niconico.Config{
			ItemLimit:         cfg.Scrape.FeedItemLimit,
			DetailLimit:       cfg.Scrape.NiconicoDetailLimit,
			DetailDelay:       cfg.Scrape.DetailDelay,
			UserBase:          nico.UserBase,
			PlusBase:          nico.PlusBase,
			PlusAPIBase:       nico.PlusAPIBase,
			LegacyChannelBase: nico.LegacyChannelBase,
			LegacyAPIBase:     nico.LegacyAPIBase,
			SnapshotURL:       nico.SnapshotURL,
		}, client, logger),
		domain.PlatformWebsite: website.New(website.Config{
			ItemLimit: cfg.Scrape.FeedItemLimit,
		}, client, logger),
	}
}

func buildNewsSources(cfg config.NewsConfig, client *fetch.Client, logger *slog.Logger) []service.NewsSource {
	sources := make([]service.NewsSource, 0, len(cfg.Sources))
	for _, profile := range cfg.Sources {
		sources = append(sources, news.New(profile, client, cfg.ItemLimit, logger))
	}
	return sources
}
