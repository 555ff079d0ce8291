package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	gobreaker "github.com/sony/gobreaker/v2"

	"politics_fetcher/internal/metrics"
)

const maxBodyBytes = 8 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Config holds HTTP client configuration shared by all adapters.
type Config struct {
	Timeout        time.Duration
	UserAgent      string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// BreakerFailures is the number of consecutive failures that opens a host's breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client performs bounded GET requests. Every call carries its own timeout
// and goes through a per-host circuit breaker so a dead upstream fails fast
// across fallback tiers.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	breakers       *breakerSet
	logger         *slog.Logger
}

type breakerSet struct {
	mu       sync.Mutex
	settings gobreaker.Settings
	byHost   map[string]*gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	c := &Client{
		httpClient:     &http.Client{},
		timeout:        cfg.Timeout,
		userAgent:      cfg.UserAgent,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "fetch"),
	}
	c.breakers = &breakerSet{byHost: make(map[string]*gobreaker.CircuitBreaker[[]byte])}
	c.breakers.settings = gobreaker.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 4xx answers mean the host is up; only transport errors and 5xx count.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "host", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	return c
}

// WithTimeout returns a copy of the client using a different per-call timeout.
// Breakers are shared with the original.
func (c *Client) WithTimeout(d time.Duration) *Client {
	return &Client{
		httpClient:     c.httpClient,
		timeout:        d,
		userAgent:      c.userAgent,
		maxAttempts:    c.maxAttempts,
		initialBackoff: c.initialBackoff,
		maxBackoff:     c.maxBackoff,
		breakers:       c.breakers,
		logger:         c.logger,
	}
}

// GetBytes fetches rawURL and returns the body, retrying transient failures.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	cb := c.breakers.get(u.Host)
	var body []byte

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		start := time.Now()
		body, err = cb.Execute(func() ([]byte, error) {
			return c.doRequest(ctx, rawURL)
		})
		metrics.ObserveFetch(u.Host, start, err)
		if err == nil {
			return body, nil
		}
		if !retryable(err) || attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Debug("request failed, retrying",
			"url", rawURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("get %s: %w", rawURL, err)
}

func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// GetJSON decodes a JSON response into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetFeed parses an RSS or Atom feed.
func (c *Client) GetFeed(ctx context.Context, rawURL string) (*gofeed.Feed, error) {
	body, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// GetDocument parses an HTML page.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if base, perr := url.Parse(rawURL); perr == nil {
		doc.Url = base
	}
	return doc, nil
}

func (b *breakerSet) get(host string) *gobreaker.CircuitBreaker[[]byte] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.byHost[host]; ok {
		return cb
	}
	st := b.settings
	st.Name = host
	cb := gobreaker.NewCircuitBreaker[[]byte](st)
	b.byHost[host] = cb
	return cb
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if c.maxBackoff > 0 && backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return true
}
