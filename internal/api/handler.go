// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"awesome-hub/internal/cache"
	"awesome-hub/internal/model"
)

const detailCacheTTL = 30 * time.Minute

// Service is the search orchestration boundary consumed by the API.
type Service interface {
	Search(ctx context.Context, q model.SearchQuery) (model.SearchPage, error)
	Featured(ctx context.Context) ([]model.Repository, error)
	Stats(ctx context.Context) (model.Stats, error)
	RepoDetail(ctx context.Context, owner, name string) (model.RepoDetail, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// StatusProvider reports external API quota for the status endpoint.
type StatusProvider interface {
	Authenticated() bool
	RateLimit(ctx context.Context) (model.RateLimitStatus, error)
}

// CacheTTLs configures how long each cached endpoint holds its result.
type CacheTTLs struct {
	Search   time.Duration
	Featured time.Duration
	Stats    time.Duration
}

// Handler is the container for API dependencies.
type Handler struct {
	svc     Service
	status  StatusProvider
	fetcher *cache.Fetcher
	ttls    CacheTTLs
	logger  *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(svc Service, status StatusProvider, fetcher *cache.Fetcher, ttls CacheTTLs, logger *slog.Logger) http.Handler {
	h := &Handler{
		svc:     svc,
		status:  status,
		fetcher: fetcher,
		ttls:    ttls,
		logger:  logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API Routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", h.search)
		r.Get("/featured", h.featured)
		r.Get("/stats", h.stats)
		r.Get("/status", h.githubStatus)
		r.Get("/categories", h.categories)
		r.Get("/repos/{owner}/{name}", h.repoDetail)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// search handles repository search with the cache-first flow.
// GET /v1/search?q=...&page=N&category=...&language=...&topic=...&sort=...&minStars=N
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := searchCacheKey(query)
	result, err := cache.CacheFirst(r.Context(), h.fetcher, key, h.ttls.Search,
		func(ctx context.Context) (model.SearchPage, error) {
			return h.svc.Search(ctx, query)
		})
	if err != nil {
		h.logger.Error("Search failed", "query", query.Text, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to search repositories")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// featured returns the top repositories by stars.
// GET /v1/featured
func (h *Handler) featured(w http.ResponseWriter, r *http.Request) {
	repos, err := cache.CacheFirst(r.Context(), h.fetcher, "featured-repos", h.ttls.Featured,
		func(ctx context.Context) ([]model.Repository, error) {
			return h.svc.Featured(ctx)
		})
	if err != nil {
		h.logger.Error("Featured lookup failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch featured repositories")
		return
	}

	respondWithJSON(w, http.StatusOK, repos)
}

// stats returns the cached dashboard summary.
// GET /v1/stats
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := cache.CacheFirst(r.Context(), h.fetcher, "awesome-hub-stats", h.ttls.Stats,
		func(ctx context.Context) (model.Stats, error) {
			return h.svc.Stats(ctx)
		})
	if err != nil {
		h.logger.Error("Stats aggregation failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// githubStatus reports GitHub rate-limit state. Quota failures still
// return 200 so the UI can show the auth state.
// GET /v1/status
func (h *Handler) githubStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.status.RateLimit(r.Context())
	if err != nil {
		h.logger.Warn("Rate limit check failed", "error", err)
		respondWithJSON(w, http.StatusOK, map[string]any{
			"authenticated": h.status.Authenticated(),
			"error":         "Failed to check rate limits",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// categories lists browsing categories.
// GET /v1/categories
func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := cache.CacheFirst(r.Context(), h.fetcher, "categories", h.ttls.Stats,
		func(ctx context.Context) ([]model.Category, error) {
			return h.svc.Categories(ctx)
		})
	if err != nil {
		h.logger.Error("Category listing failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}

	respondWithJSON(w, http.StatusOK, categories)
}

// repoDetail returns one repository with README and contributors.
// GET /v1/repos/{owner}/{name}
func (h *Handler) repoDetail(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	key := fmt.Sprintf("repo-%s/%s", owner, name)
	detail, err := cache.CacheFirst(r.Context(), h.fetcher, key, detailCacheTTL,
		func(ctx context.Context) (model.RepoDetail, error) {
			return h.svc.RepoDetail(ctx, owner, name)
		})
	if err != nil {
		h.logger.Error("Repository detail failed", "owner", owner, "repo", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch repository")
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// searchCacheKey deterministically encodes every parameter that affects
// the search result, so two different queries never share an entry.
func searchCacheKey(q model.SearchQuery) string {
	params, _ := json.Marshal(struct {
		Q        string `json:"q"`
		Category string `json:"category"`
		Page     int    `json:"page"`
		Language string `json:"language"`
		Topic    string `json:"topic"`
		MinStars int    `json:"minStars"`
		Sort     string `json:"sort"`
	}{q.Text, q.Category, q.Page, q.Language, q.Topic, q.MinStars, q.Sort})
	return "search-" + string(params)
}
