package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"lifeboard/models"
	"lifeboard/services/metadata"
)

type metadataService interface {
	Configured() bool
	Popular(ctx context.Context, kind models.MediaKind, page int) ([]models.ContentItem, error)
	Trending(ctx context.Context, kind models.MediaKind) ([]models.ContentItem, error)
	Search(ctx context.Context, kind models.MediaKind, query string, page int) ([]models.ContentItem, error)
}

var _ metadataService = (*metadata.Service)(nil)

// ContentHandler exposes provider browsing used to find titles to add to the
// library. Unlike recommendations these lists are not personalized.
type ContentHandler struct {
	Metadata metadataService
}

func NewContentHandler(service metadataService) *ContentHandler {
	return &ContentHandler{Metadata: service}
}

func (h *ContentHandler) Popular(w http.ResponseWriter, r *http.Request) {
	kind, page, ok := h.browseParams(w, r)
	if !ok {
		return
	}

	items, err := h.Metadata.Popular(r.Context(), kind, page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items, "page": page})
}

func (h *ContentHandler) Trending(w http.ResponseWriter, r *http.Request) {
	kind, _, ok := h.browseParams(w, r)
	if !ok {
		return
	}

	items, err := h.Metadata.Trending(r.Context(), kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind, page, ok := h.browseParams(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	items, err := h.Metadata.Search(r.Context(), kind, query, page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items, "page": page})
}

func (h *ContentHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *ContentHandler) browseParams(w http.ResponseWriter, r *http.Request) (models.MediaKind, int, bool) {
	if !h.Metadata.Configured() {
		http.Error(w, "metadata provider is not configured", http.StatusServiceUnavailable)
		return "", 0, false
	}

	kind, err := models.ParseMediaKind(r.URL.Query().Get("media_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", 0, false
	}

	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return "", 0, false
		}
		page = parsed
	}

	return kind, page, true
}
