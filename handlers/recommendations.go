package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lifeboard/models"
	"lifeboard/services/recommendations"
)

type recommendationsService interface {
	Batch(ctx context.Context, userID string, filter models.MediaFilter) (models.RecommendationBatch, error)
	Single(ctx context.Context, userID string, filter models.MediaFilter, extra []models.ContentRef) (*models.ContentItem, error)
}

var _ recommendationsService = (*recommendations.Service)(nil)

type RecommendationsHandler struct {
	Service recommendationsService
	Users   userService
}

func NewRecommendationsHandler(service recommendationsService, users userService) *RecommendationsHandler {
	return &RecommendationsHandler{Service: service, Users: users}
}

type batchResponse struct {
	models.RecommendationBatch
	Page         int `json:"page"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// Batch builds and returns a full recommendation batch.
func (h *RecommendationsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	filter, err := models.ParseMediaFilter(r.URL.Query().Get("media_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	batch, err := h.Service.Batch(r.Context(), userID, filter)
	if err != nil {
		http.Error(w, err.Error(), recommendationsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, batchResponse{
		RecommendationBatch: batch,
		Page:                page,
		TotalPages:          1,
		TotalResults:        len(batch.Recommendations),
	})
}

// Single returns one replacement candidate. The exclude_ids parameter lists
// ids already visible client-side so the pick cannot duplicate them.
func (h *RecommendationsHandler) Single(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	filter, err := models.ParseMediaFilter(r.URL.Query().Get("media_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	extra, err := parseExcludeIDs(r.URL.Query().Get("exclude_ids"), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Single(r.Context(), userID, filter, extra)
	if err != nil {
		http.Error(w, err.Error(), recommendationsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, models.SingleRecommendation{Recommendation: item})
}

func (h *RecommendationsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// parseExcludeIDs expands a comma-separated id list into refs. Ids carry no
// kind on the wire, so each id excludes every kind the filter allows.
func parseExcludeIDs(raw string, filter models.MediaFilter) ([]models.ContentRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	kinds := []models.MediaKind{models.MediaKindMovie, models.MediaKindTV}
	if filter != models.MediaFilterAll {
		kinds = []models.MediaKind{models.MediaKind(filter)}
	}

	var refs []models.ContentRef
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.New("exclude_ids must be a comma-separated list of integers")
		}
		for _, kind := range kinds {
			refs = append(refs, models.ContentRef{ID: id, Kind: kind})
		}
	}
	return refs, nil
}

func recommendationsErrStatus(err error) int {
	switch {
	case errors.Is(err, recommendations.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, recommendations.ErrAllStrategiesFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
