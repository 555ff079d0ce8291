// Package metrics exposes Prometheus instrumentation for the scraper.
//
// Scrape metrics:
//   - scraper_accounts_total: accounts processed (labels: platform, result)
//   - scraper_posts_fetched_total: posts returned by adapters (labels: platform)
//   - scraper_posts_inserted_total: posts newly persisted (labels: platform)
//   - scraper_persist_failures_total: posts that failed to persist (labels: platform)
//   - scraper_fallback_tier_hits_total: niconico tier that produced results (labels: tier)
//   - scraper_news_items_inserted_total: news articles and events stored (labels: source, kind)
//
// Fetch metrics:
//   - scraper_fetch_duration_seconds: outbound GET latency (labels: host, outcome)
//   - scraper_circuit_breaker_state: 0=closed, 1=half-open, 2=open (labels: host)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccountsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_accounts_total",
			Help: "Accounts processed by the orchestrator",
		},
		[]string{"platform", "result"},
	)

	PostsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_posts_fetched_total",
			Help: "Posts returned by source adapters",
		},
		[]string{"platform"},
	)

	PostsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_posts_inserted_total",
			Help: "Posts newly persisted",
		},
		[]string{"platform"},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_persist_failures_total",
			Help: "Posts that failed to persist",
		},
		[]string{"platform"},
	)

	FallbackTierHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fallback_tier_hits_total",
			Help: "Fallback strategy that produced the results for a channel",
		},
		[]string{"tier"},
	)

	NewsItemsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_news_items_inserted_total",
			Help: "News articles and events newly persisted",
		},
		[]string{"source", "kind"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Outbound GET latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"host", "outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scraper_circuit_breaker_state",
			Help: "Circuit breaker state per upstream host",
		},
		[]string{"host"},
	)
)

// ObserveFetch records the latency of one outbound request.
func ObserveFetch(host string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	FetchDuration.WithLabelValues(host, outcome).Observe(time.Since(start).Seconds())
}
