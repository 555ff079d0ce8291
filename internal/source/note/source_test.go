package note

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>example note</title>
  <item>
    <title>政策について</title>
    <link>%[1]s/example/n/n1a2b3c4d5e6f</link>
    <description>&lt;p&gt;本文の&amp;amp;抜粋&lt;/p&gt;</description>
    <pubDate>Fri, 03 Oct 2025 12:00:00 +0900</pubDate>
    <media:thumbnail>https://assets.example/eyecatch1.png</media:thumbnail>
  </item>
  <item>
    <title>活動報告</title>
    <link>%[1]s/example/n/n9f8e7d6c5b4a</link>
    <description>二本目</description>
    <pubDate>Thu, 02 Oct 2025 12:00:00 +0900</pubDate>
  </item>
</channel>
</rss>`

const articlePage = `<html><head>
<meta property="og:image" content="https://assets.example/og2.png">
</head><body></body></html>`

const profilePage = `<html><body>
<article><a href="/example/n/n111aaa" title="一本目の記事"><img src="/img/1.png"></a><time datetime="2025-10-01T10:00:00+09:00"></time></article>
<article><a href="/example/n/n111aaa">重複リンク</a></article>
<article><a href="/example/n/n222bbb">二本目の記事</a></article>
<a href="/example/about">about</a>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(srvURL string) *Source {
	client := fetch.NewClient(fetch.Config{Timeout: 2 * time.Second, MaxAttempts: 1}, testLogger())
	return New(Config{BaseURL: srvURL, ItemLimit: 20, PageFetchLimit: 5}, client, testLogger())
}

func TestFetch_FeedWithPageThumbnailFallback(t *testing.T) {
	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/example/rss", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, feedTemplate, "http://"+r.Host)
	})
	mux.HandleFunc("/example/n/", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		_, _ = w.Write([]byte(articlePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	posts, err := newTestSource(srv.URL).Fetch(context.Background(), domain.SourceAccount{ID: 3, AccountHandle: "example"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, domain.PlatformNote, posts[0].Platform)
	assert.Equal(t, "n1a2b3c4d5e6f", posts[0].ExternalID)
	assert.Equal(t, "政策について", posts[0].Title)
	assert.Equal(t, "本文の&抜粋", posts[0].Content)
	assert.Equal(t, "https://assets.example/eyecatch1.png", posts[0].ThumbnailURL)

	assert.Equal(t, "n9f8e7d6c5b4a", posts[1].ExternalID)
	assert.Equal(t, "https://assets.example/og2.png", posts[1].ThumbnailURL)
	assert.Equal(t, int32(1), pageHits.Load(), "only the post without a feed thumbnail is fetched")
}

func TestFetch_PageFetchLimit(t *testing.T) {
	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/example/rss", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, feedTemplate, "http://"+r.Host)
	})
	mux.HandleFunc("/example/n/", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		_, _ = w.Write([]byte(articlePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := newTestSource(srv.URL)
	src.pageFetchLimit = 1

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 3, AccountHandle: "example"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Empty(t, posts[1].ThumbnailURL)
	assert.Equal(t, int32(0), pageHits.Load())
}

func TestFetch_ProfileFallbackWhenFeedFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/example/rss", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/example", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(profilePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	posts, err := newTestSource(srv.URL).Fetch(context.Background(), domain.SourceAccount{ID: 3, AccountURL: "https://note.com/example"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "n111aaa", posts[0].ExternalID)
	assert.Equal(t, "一本目の記事", posts[0].Title)
	assert.Equal(t, srv.URL+"/example/n/n111aaa", posts[0].URL)
	assert.Equal(t, srv.URL+"/img/1.png", posts[0].ThumbnailURL)
	assert.Equal(t, 2025, posts[0].PublishedAt.Year())
	assert.Equal(t, "n222bbb", posts[1].ExternalID)
}

func TestFetch_MissingHandle(t *testing.T) {
	_, err := newTestSource("http://127.0.0.1:1").Fetch(context.Background(), domain.SourceAccount{ID: 3})
	assert.ErrorIs(t, err, domain.ErrMissingSource)
}

func TestFetch_PageFetchesArePaced(t *testing.T) {
	const delay = 120 * time.Millisecond

	var (
		mu   sync.Mutex
		hits []time.Time
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/example/rss", func(w http.ResponseWriter, r *http.Request) {
		var items strings.Builder
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(&items, `<item><title>記事%[2]d</title><link>http://%[1]s/example/n/n00%[2]d</link><pubDate>Fri, 03 Oct 2025 12:00:00 +0900</pubDate></item>`, r.Host, i)
		}
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>%s</channel></rss>`, items.String())
	})
	mux.HandleFunc("/example/n/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(articlePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := newTestSource(srv.URL)
	src.pageFetchDelay = delay

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 3, AccountHandle: "example"})
	require.NoError(t, err)
	require.Len(t, posts, 3)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		// Small slack for scheduling between the limiter and the handler.
		assert.GreaterOrEqual(t, hits[i].Sub(hits[i-1]), delay-10*time.Millisecond, "gap %d", i)
	}
}
