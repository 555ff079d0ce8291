// Package api exposes the scrape runs over HTTP so they can be triggered
// outside the schedule.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"politics_fetcher/internal/domain"
)

type Scraper interface {
	RunAll(ctx context.Context) domain.Summary
	RunOne(ctx context.Context, accountID int64) domain.Summary
	RunForEntity(ctx context.Context, entityID int64) domain.Summary
}

type NewsSyncer interface {
	Sync(ctx context.Context) domain.Summary
}

type Handler struct {
	scraper    Scraper
	news       NewsSyncer
	runTimeout time.Duration
	logger     *slog.Logger

	// One run of each kind at a time; a second trigger gets 409.
	scrapeMu sync.Mutex
	newsMu   sync.Mutex
}

// NewHandler builds the trigger handler. news may be nil when no news
// sources are configured.
func NewHandler(scraper Scraper, news NewsSyncer, runTimeout time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		scraper:    scraper,
		news:       news,
		runTimeout: runTimeout,
		logger:     logger.With("component", "api"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/scrape", func(r chi.Router) {
		r.Post("/all", h.scrapeAll)
		r.Post("/accounts/{id}", h.scrapeAccount)
		r.Post("/entities/{id}", h.scrapeEntity)
		r.Post("/news", h.syncNews)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) scrapeAll(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, &h.scrapeMu, "all", h.scraper.RunAll)
}

func (h *Handler) scrapeAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.run(w, r, &h.scrapeMu, "account", func(ctx context.Context) domain.Summary {
		return h.scraper.RunOne(ctx, id)
	})
}

func (h *Handler) scrapeEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.run(w, r, &h.scrapeMu, "entity", func(ctx context.Context) domain.Summary {
		return h.scraper.RunForEntity(ctx, id)
	})
}

func (h *Handler) syncNews(w http.ResponseWriter, r *http.Request) {
	if h.news == nil {
		writeJSON(w, http.StatusOK, domain.Summary{Success: true, Message: "no news sources configured"})
		return
	}
	h.run(w, r, &h.newsMu, "news", h.news.Sync)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, mu *sync.Mutex, kind string, fn func(context.Context) domain.Summary) {
	if !mu.TryLock() {
		writeJSON(w, http.StatusConflict, domain.Summary{Message: "a " + kind + " run is already in progress"})
		return
	}
	defer mu.Unlock()

	ctx := r.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	summary := fn(ctx)
	h.logger.Info("triggered run finished",
		"kind", kind,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"success", summary.Success,
		"count", summary.Count,
	)

	status := http.StatusOK
	if !summary.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, summary)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, domain.Summary{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
