package textnorm

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"politics_fetcher/internal/fetch"
)

const DefaultCanonicalEndpoint = "https://api.fxtwitter.com/status/{id}"

type canonicalResponse struct {
	Code  int `json:"code"`
	Tweet *struct {
		Text string `json:"text"`
		Raw  *struct {
			Text string `json:"text"`
		} `json:"raw_text"`
	} `json:"tweet"`
}

// CanonicalFetcher looks up the full text of a post whose feed text was
// truncated. Lookups are best effort.
type CanonicalFetcher struct {
	client   *fetch.Client
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCanonicalFetcher builds a fetcher. endpoint must contain "{id}".
func NewCanonicalFetcher(client *fetch.Client, endpoint string, timeout time.Duration, logger *slog.Logger) *CanonicalFetcher {
	if endpoint == "" {
		endpoint = DefaultCanonicalEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CanonicalFetcher{
		client:   client.WithTimeout(timeout),
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger.With("component", "canonical_text"),
	}
}

// FetchCanonicalText returns the full text for externalID. The boolean is
// false on any failure; callers then keep the feed-provided text.
func (f *CanonicalFetcher) FetchCanonicalText(ctx context.Context, externalID string) (string, bool) {
	if f == nil || externalID == "" {
		return "", false
	}
	// The bound covers retries and backoff too, not just each attempt.
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	target := strings.ReplaceAll(f.endpoint, "{id}", url.PathEscape(externalID))

	var resp canonicalResponse
	if err := f.client.GetJSON(ctx, target, &resp); err != nil {
		f.logger.Debug("canonical text lookup failed", "external_id", externalID, "error", err)
		return "", false
	}
	if resp.Tweet == nil {
		return "", false
	}
	text := resp.Tweet.Text
	if text == "" && resp.Tweet.Raw != nil {
		text = resp.Tweet.Raw.Text
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}
