package domain

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformYouTube  Platform = "youtube"
	PlatformNote     Platform = "note"
	PlatformNiconico Platform = "niconico"
	PlatformWebsite  Platform = "website"
)

var platformAliases = map[string]Platform{
	"x":           PlatformTwitter,
	"twitter":     PlatformTwitter,
	"tw":          PlatformTwitter,
	"youtube":     PlatformYouTube,
	"yt":          PlatformYouTube,
	"note":        PlatformNote,
	"niconico":    PlatformNiconico,
	"nicovideo":   PlatformNiconico,
	"nico":        PlatformNiconico,
	"nicochannel": PlatformNiconico,
	"website":     PlatformWebsite,
	"web":         PlatformWebsite,
	"site":        PlatformWebsite,
	"blog":        PlatformWebsite,
	"ameblo":      PlatformWebsite,
}

// NormalizePlatform maps the free-form platform names stored in account
// settings onto the canonical key. Unknown names are kept lower-cased.
func NormalizePlatform(raw string) Platform {
	key := strings.ToLower(strings.TrimSpace(raw))
	if p, ok := platformAliases[key]; ok {
		return p
	}
	return Platform(key)
}

// ScrapedPost is the canonical output of every source adapter.
type ScrapedPost struct {
	ID           int64     `json:"id,omitempty"`
	AccountID    int64     `json:"account_id"`
	EntityID     int64     `json:"entity_id,omitempty"`
	Platform     Platform  `json:"platform"`
	ExternalID   string    `json:"external_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	Content      string    `json:"content,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	MediaURLs    []string  `json:"media_urls"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"published_at"`
}

// DedupKey identifies a post for insert-if-absent semantics.
type DedupKey struct {
	Platform   Platform
	ExternalID string
	URL        string
}

// DedupKey prefers the platform-native id and falls back to the permalink.
func (p *ScrapedPost) DedupKey() DedupKey {
	if p.ExternalID != "" {
		return DedupKey{Platform: p.Platform, ExternalID: p.ExternalID}
	}
	return DedupKey{Platform: p.Platform, URL: p.URL}
}

func (k DedupKey) String() string {
	if k.ExternalID != "" {
		return string(k.Platform) + ":id:" + k.ExternalID
	}
	return string(k.Platform) + ":url:" + k.URL
}

// SourceAccount is one social account to scrape. Owned by the admin side;
// the scraper only stamps LastScrapedAt.
type SourceAccount struct {
	ID            int64      `db:"id" json:"id"`
	EntityID      int64      `db:"entity_id" json:"entity_id"`
	Platform      Platform   `db:"platform" json:"platform"`
	AccountHandle string     `db:"account_handle" json:"account_handle"`
	ChannelID     string     `db:"channel_id" json:"channel_id,omitempty"`
	AccountURL    string     `db:"account_url" json:"account_url"`
	RSSURL        string     `db:"rss_url" json:"rss_url,omitempty"`
	ScrapingURL   string     `db:"scraping_url" json:"scraping_url,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	LastScrapedAt *time.Time `db:"last_scraped_at" json:"last_scraped_at,omitempty"`
}
