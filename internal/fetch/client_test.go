package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(attempts int, breakerFailures uint32) *Client {
	return NewClient(Config{
		Timeout:         time.Second,
		UserAgent:       "test-agent",
		MaxAttempts:     attempts,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		BreakerFailures: breakerFailures,
		BreakerTimeout:  time.Minute,
	}, testLogger())
}

func TestGetBytes_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient(3, 10).GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetBytes_DoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(3, 10).GetBytes(context.Background(), srv.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetBytes_BreakerOpensPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(1, 2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.GetBytes(ctx, srv.URL)
		require.Error(t, err)
	}

	_, err := c.GetBytes(ctx, srv.URL+"/other")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetBytes_ClientErrorsKeepBreakerClosed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(1, 2)
	for i := 0; i < 4; i++ {
		_, err := c.GetBytes(context.Background(), srv.URL)
		require.Error(t, err)
	}
	assert.Equal(t, int32(4), hits.Load())
}

func TestGetBytes_InvalidURL(t *testing.T) {
	_, err := newTestClient(1, 1).GetBytes(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestGetDocument_ResolvesRelativeLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:image" content="/img/cover.jpg">
			<meta name="description" content=" 政策について ">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	doc, err := newTestClient(1, 5).GetDocument(context.Background(), srv.URL+"/news/1")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/img/cover.jpg", PageImage(doc))
	assert.Equal(t, "政策について", Meta(doc, "og:description", "description"))
	assert.Equal(t, srv.URL+"/news/2", Resolve(doc, "2"))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"sm9"}}`))
	}))
	defer srv.Close()

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, newTestClient(1, 5).GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "sm9", out.Data.ID)
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{initialBackoff: time.Second, maxBackoff: 5 * time.Second}
	assert.Equal(t, time.Second, c.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, c.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, c.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, c.calculateBackoff(4))
}
