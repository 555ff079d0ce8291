package youtube

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

const channelID = "UCabcdefghijklmnopqrstuv"

const testAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <title>Example Channel</title>
  <entry>
    <id>yt:video:abcdefghijk</id>
    <yt:videoId>abcdefghijk</yt:videoId>
    <title>国会質疑ダイジェスト</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abcdefghijk"/>
    <published>2025-10-03T01:00:00+00:00</published>
    <media:group>
      <media:title>国会質疑ダイジェスト</media:title>
      <media:thumbnail url="https://i1.ytimg.com/vi/abcdefghijk/hqdefault.jpg" width="480" height="360"/>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:lmnopqrstuv</id>
    <title>街頭演説</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=lmnopqrstuv"/>
    <published>2025-10-02T01:00:00+00:00</published>
  </entry>
</feed>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := fetch.NewClient(fetch.Config{Timeout: 2 * time.Second, MaxAttempts: 1}, testLogger())
	return New(Config{FeedBase: srv.URL + "/feeds/videos.xml", ItemLimit: 20}, client, testLogger()), srv
}

func TestFeedURL_ResolutionOrder(t *testing.T) {
	src := New(Config{}, fetch.NewClient(fetch.Config{}, testLogger()), testLogger())
	other := "UCzzzzzzzzzzzzzzzzzzzzzz"

	tests := []struct {
		name    string
		account domain.SourceAccount
		want    string
	}{
		{
			name:    "stored feed url used as is",
			account: domain.SourceAccount{RSSURL: "https://www.youtube.com/feeds/videos.xml?channel_id=" + channelID, AccountURL: "https://www.youtube.com/channel/" + other},
			want:    "https://www.youtube.com/feeds/videos.xml?channel_id=" + channelID,
		},
		{
			name:    "channel_id query parameter",
			account: domain.SourceAccount{RSSURL: "https://rss.example/?channel_id=" + channelID},
			want:    DefaultFeedBase + "?channel_id=" + channelID,
		},
		{
			name:    "query parameter beats channel path",
			account: domain.SourceAccount{AccountURL: "https://www.youtube.com/channel/" + other + "?channel_id=" + channelID},
			want:    DefaultFeedBase + "?channel_id=" + channelID,
		},
		{
			name:    "channel path segment",
			account: domain.SourceAccount{AccountURL: "https://www.youtube.com/channel/" + channelID + "/videos"},
			want:    DefaultFeedBase + "?channel_id=" + channelID,
		},
		{
			name:    "stored channel id",
			account: domain.SourceAccount{ChannelID: channelID},
			want:    DefaultFeedBase + "?channel_id=" + channelID,
		},
		{
			name:    "handle url cannot be resolved",
			account: domain.SourceAccount{AccountURL: "https://www.youtube.com/@example"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, src.FeedURL(tt.account))
		})
	}
}

func TestFetch_ParsesFeed(t *testing.T) {
	src, srv := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, channelID, r.URL.Query().Get("channel_id"))
		_, _ = w.Write([]byte(testAtom))
	})

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{
		ID:     7,
		RSSURL: srv.URL + "/feeds/videos.xml?channel_id=" + channelID,
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, domain.PlatformYouTube, posts[0].Platform)
	assert.Equal(t, "abcdefghijk", posts[0].ExternalID)
	assert.Equal(t, "国会質疑ダイジェスト", posts[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", posts[0].URL)
	assert.Equal(t, "https://i1.ytimg.com/vi/abcdefghijk/hqdefault.jpg", posts[0].ThumbnailURL)
	assert.Equal(t, time.Date(2025, 10, 3, 1, 0, 0, 0, time.UTC), posts[0].PublishedAt.UTC())

	assert.Equal(t, "lmnopqrstuv", posts[1].ExternalID)
	assert.Empty(t, posts[1].ThumbnailURL)
	assert.Empty(t, posts[1].MediaURLs)
}

func TestFetch_NoChannelID(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1, AccountURL: "https://www.youtube.com/@example"})
	assert.ErrorIs(t, err, domain.ErrMissingSource)
	assert.Empty(t, posts)
}

func TestFetch_PageFallbackWhenScrapingURLConfigured(t *testing.T) {
	page := `<html><script>var ytInitialData = {"contents":[` +
		`{"videoRenderer":{"videoId":"AAAAAAAAAAA","thumbnail":{},"title":{"runs":[{"text":"演説 \"速報\""}]}}},` +
		`{"videoRenderer":{"videoId":"BBBBBBBBBBB","thumbnail":{},"title":{"runs":[{"text":"二本目"}]}}},` +
		`{"videoRenderer":{"videoId":"AAAAAAAAAAA","thumbnail":{},"title":{"runs":[{"text":"重複"}]}}}` +
		`]};</script></html>`
	src, srv := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})

	posts, err := src.Fetch(context.Background(), domain.SourceAccount{ID: 1, ScrapingURL: srv.URL + "/@example/videos"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "AAAAAAAAAAA", posts[0].ExternalID)
	assert.Equal(t, `演説 "速報"`, posts[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=BBBBBBBBBBB", posts[1].URL)
}
