package twitter

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>example / @example</title>
  <item>
    <title>Some short text... https://t.co/abc123</title>
    <link>https://bridge.example/example/status/123#m</link>
    <pubDate>Fri, 03 Oct 2025 09:00:00 GMT</pubDate>
    <media:content url="https://pbs.example/media/1.jpg" medium="image"/>
  </item>
  <item>
    <title>Complete post &amp;amp; more pic.twitter.com/xyz</title>
    <link>https://bridge.example/example/status/456</link>
    <pubDate>not a date</pubDate>
    <description>&lt;p&gt;body &lt;img src="https://pbs.example/media/2.jpg"&gt;&lt;/p&gt;</description>
  </item>
  <item>
    <title>no link at all</title>
  </item>
</channel>
</rss>`

type fakeCanonical struct {
	text  string
	ok    bool
	calls []string
}

func (f *fakeCanonical) FetchCanonicalText(_ context.Context, id string) (string, bool) {
	f.calls = append(f.calls, id)
	return f.text, f.ok
}

func newTestSource(t *testing.T, handler http.HandlerFunc, canonical CanonicalTextFetcher) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := fetch.NewClient(fetch.Config{Timeout: 2 * time.Second, MaxAttempts: 1}, logger)
	src := New(Config{RSSBase: srv.URL, ItemLimit: 20}, client, canonical, logger)
	return src, srv
}

func feedHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/example/rss", r.URL.Path)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}
}

func TestFetch_TruncatedTextIsReplacedByCanonical(t *testing.T) {
	canonical := &fakeCanonical{text: "Some short text with the full sentence.", ok: true}
	src, _ := newTestSource(t, feedHandler(t), canonical)

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1, AccountHandle: "@example"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, domain.PlatformTwitter, first.Platform)
	assert.Equal(t, "123", first.ExternalID)
	assert.Equal(t, "Some short text with the full sentence.", first.Title)
	assert.Equal(t, "https://x.com/example/status/123", first.URL)
	assert.Equal(t, "https://pbs.example/media/1.jpg", first.ThumbnailURL)
	assert.Equal(t, []string{"https://pbs.example/media/1.jpg"}, first.MediaURLs)
	assert.Equal(t, 2025, first.PublishedAt.Year())

	second := posts[1]
	assert.Equal(t, "456", second.ExternalID)
	assert.Equal(t, "Complete post & more", second.Title)
	assert.Equal(t, "https://pbs.example/media/2.jpg", second.ThumbnailURL)
	assert.False(t, second.PublishedAt.IsZero())

	assert.Equal(t, []string{"123"}, canonical.calls)
}

func TestFetch_CanonicalFailureKeepsFeedText(t *testing.T) {
	canonical := &fakeCanonical{ok: false}
	src, _ := newTestSource(t, feedHandler(t), canonical)

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1, AccountHandle: "example"})
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, "Some short text...", posts[0].Title)
}

func TestFetch_ItemLimit(t *testing.T) {
	src, _ := newTestSource(t, feedHandler(t), nil)
	src.itemLimit = 1

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1, AccountHandle: "example"})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestFetch_FeedErrorDegradesToEmpty(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1, AccountHandle: "example"})
	assert.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetch_MissingHandle(t *testing.T) {
	src, _ := newTestSource(t, feedHandler(t), nil)

	_, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1})
	assert.ErrorIs(t, err, domain.ErrMissingSource)
}

func TestHandle(t *testing.T) {
	assert.Equal(t, "abc", Handle(domain.SourceAccount{AccountHandle: " @abc "}))
	assert.Equal(t, "abc_1", Handle(domain.SourceAccount{AccountURL: "https://x.com/abc_1"}))
	assert.Equal(t, "abc", Handle(domain.SourceAccount{AccountURL: "https://twitter.com/@abc/"}))
	assert.Equal(t, "", Handle(domain.SourceAccount{AccountURL: "https://example.com"}))
}
