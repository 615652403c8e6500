package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"news-tagger/internal/core"
	"news-tagger/internal/model"
	"news-tagger/internal/registry"
)

const (
	msgInvalidCategory = "Invalid category"
	msgFetchFailed     = "Failed to fetch RSS feed: "
	msgParseFailed     = "Failed to parse RSS feed: "
	msgInternalServer  = "Internal Server Error"
)

type ArticleSource interface {
	Articles(ctx context.Context, category, url string) ([]model.Article, error)
}

type NewsHandler struct {
	registry *registry.Registry
	source   ArticleSource
	logger   *slog.Logger
}

func NewNewsHandler(reg *registry.Registry, source ArticleSource, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{registry: reg, source: source, logger: logger}
}

// GetNews serves GET /api/news/{category}.
func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, so the segment is still escaped.
	category := chi.URLParam(r, paramCategory)
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(category); err == nil {
			category = decoded
		}
	}

	feedURL, err := h.registry.Lookup(category)
	if err != nil {
		h.logger.Info("rejected category", "category", category)
		respondWithError(w, http.StatusBadRequest, msgInvalidCategory)
		return
	}

	articles, err := h.source.Articles(r.Context(), category, feedURL)
	if err != nil {
		var fetchErr *core.FetchError
		var parseErr *core.ParseError
		switch {
		case errors.As(err, &fetchErr):
			respondWithError(w, http.StatusInternalServerError, msgFetchFailed+fetchErr.Error())
		case errors.As(err, &parseErr):
			respondWithError(w, http.StatusInternalServerError, msgParseFailed+parseErr.Error())
		default:
			h.logger.Error("unexpected pipeline error", "category", category, "error", err)
			respondWithError(w, http.StatusInternalServerError, msgInternalServer)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, articles)
}

// ListCategories serves GET /api/categories.
func (h *NewsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.registry.Categories())
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
