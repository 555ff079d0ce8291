// Package niconico scrapes Niconico users and channels through an ordered
// chain of fallback strategies. The first strategy that returns posts wins.
package niconico

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
	"politics_fetcher/internal/metrics"
)

var (
	reUserURL    = regexp.MustCompile(`nicovideo\.jp/user/(\d+)`)
	rePlusURL    = regexp.MustCompile(`nicochannel\.jp/([A-Za-z0-9_-]+)`)
	reLegacyURL  = regexp.MustCompile(`ch\.nicovideo\.jp/(?:channel/)?([A-Za-z0-9_-]+)`)
	reContentID  = regexp.MustCompile(`\b((?:sm|so|nm|lv)\d+)\b`)
	reHandleSlug = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type RefKind int

const (
	RefUser RefKind = iota + 1
	RefChannelPlus
	RefLegacyChannel
)

func (k RefKind) String() string {
	switch k {
	case RefUser:
		return "user"
	case RefChannelPlus:
		return "channel_plus"
	case RefLegacyChannel:
		return "legacy_channel"
	}
	return "unknown"
}

// ChannelRef is the parsed identity of a Niconico account.
type ChannelRef struct {
	Kind   RefKind
	UserID string
	Slug   string
	// Name is used as the search keyword.
	Name string
	URL  string
}

// Strategy is one fallback tier. Attempt never fails: errors are logged
// inside and reported as an empty result.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, ref ChannelRef) []domain.ScrapedPost
}

// Config holds Niconico source configuration. Base URLs are overridable for tests.
type Config struct {
	ItemLimit         int
	DetailLimit       int
	DetailDelay       time.Duration
	UserBase          string
	PlusBase          string
	PlusAPIBase       string
	LegacyChannelBase string
	LegacyAPIBase     string
	SnapshotURL       string
}

func (c *Config) setDefaults() {
	if c.ItemLimit == 0 {
		c.ItemLimit = 20
	}
	if c.DetailLimit == 0 {
		c.DetailLimit = 3
	}
	if c.UserBase == "" {
		c.UserBase = "https://www.nicovideo.jp"
	}
	if c.PlusBase == "" {
		c.PlusBase = "https://nicochannel.jp"
	}
	if c.PlusAPIBase == "" {
		c.PlusAPIBase = "https://api.nicochannel.jp/fc"
	}
	if c.LegacyChannelBase == "" {
		c.LegacyChannelBase = "https://ch.nicovideo.jp"
	}
	if c.LegacyAPIBase == "" {
		c.LegacyAPIBase = "https://ch.nicovideo.jp/api/v2"
	}
	if c.SnapshotURL == "" {
		c.SnapshotURL = "https://snapshot.search.nicovideo.jp/api/v2/snapshot/video/contents/search"
	}
	c.UserBase = strings.TrimRight(c.UserBase, "/")
	c.PlusBase = strings.TrimRight(c.PlusBase, "/")
	c.PlusAPIBase = strings.TrimRight(c.PlusAPIBase, "/")
	c.LegacyChannelBase = strings.TrimRight(c.LegacyChannelBase, "/")
	c.LegacyAPIBase = strings.TrimRight(c.LegacyAPIBase, "/")
}

// Source runs the strategy chain for one account.
type Source struct {
	strategies []Strategy
	itemLimit  int
	logger     *slog.Logger
}

// New builds the default chain: user RSS, channel-plus APIs, legacy channel
// API, snapshot search, then RSS guesses and HTML scraping.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	cfg.setDefaults()
	logger = logger.With("source", domain.PlatformNiconico)
	resolver := NewPageSiteIDResolver(client, cfg.PlusBase, logger)

	return NewWithStrategies([]Strategy{
		newUserFeedStrategy(cfg, client, logger),
		newChannelPlusStrategy(cfg, client, resolver, logger),
		newLegacyAPIStrategy(cfg, client, logger),
		newSearchStrategy(cfg, client, logger),
		newScrapeStrategy(cfg, client, logger),
	}, cfg.ItemLimit, logger)
}

func NewWithStrategies(strategies []Strategy, itemLimit int, logger *slog.Logger) *Source {
	return &Source{strategies: strategies, itemLimit: itemLimit, logger: logger}
}

func (s *Source) Fetch(ctx context.Context, account domain.SourceAccount) ([]domain.ScrapedPost, error) {
	ref, ok := ParseRef(account)
	if !ok {
		return nil, fmt.Errorf("niconico account %d: %w", account.ID, domain.ErrMissingSource)
	}

	for _, strategy := range s.strategies {
		if ctx.Err() != nil {
			return nil, nil
		}
		posts := s.attempt(ctx, strategy, ref)
		if len(posts) == 0 {
			s.logger.Debug("strategy returned nothing", "strategy", strategy.Name(), "ref", ref.Kind.String(), "account_id", account.ID)
			continue
		}

		metrics.FallbackTierHits.WithLabelValues(strategy.Name()).Inc()
		s.logger.Info("strategy succeeded", "strategy", strategy.Name(), "account_id", account.ID, "posts", len(posts))
		if s.itemLimit > 0 && len(posts) > s.itemLimit {
			posts = posts[:s.itemLimit]
		}
		for i := range posts {
			posts[i].Platform = domain.PlatformNiconico
		}
		return posts, nil
	}

	s.logger.Warn("all strategies returned nothing", "account_id", account.ID)
	return nil, nil
}

func (s *Source) attempt(ctx context.Context, strategy Strategy, ref ChannelRef) (posts []domain.ScrapedPost) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("strategy panicked", "strategy", strategy.Name(), "panic", r)
			posts = nil
		}
	}()
	return strategy.Attempt(ctx, ref)
}

// ParseRef classifies the account by its URLs and handle.
func ParseRef(account domain.SourceAccount) (ChannelRef, bool) {
	name := strings.TrimPrefix(strings.TrimSpace(account.AccountHandle), "@")
	for _, raw := range []string{account.AccountURL, account.ScrapingURL, account.RSSURL} {
		if raw == "" {
			continue
		}
		if m := reUserURL.FindStringSubmatch(raw); m != nil {
			return ChannelRef{Kind: RefUser, UserID: m[1], Name: name, URL: raw}, true
		}
		if m := rePlusURL.FindStringSubmatch(raw); m != nil {
			return ChannelRef{Kind: RefChannelPlus, Slug: m[1], Name: orDefault(name, m[1]), URL: raw}, true
		}
		if m := reLegacyURL.FindStringSubmatch(raw); m != nil {
			return ChannelRef{Kind: RefLegacyChannel, Slug: m[1], Name: orDefault(name, m[1]), URL: raw}, true
		}
	}
	if id := strings.TrimSpace(account.ChannelID); id != "" && reHandleSlug.MatchString(id) {
		return ChannelRef{Kind: RefLegacyChannel, Slug: id, Name: orDefault(name, id)}, true
	}
	return ChannelRef{}, false
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func watchURL(base, contentID string) string {
	return base + "/watch/" + contentID
}
