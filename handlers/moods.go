package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lifeboard/models"
	"lifeboard/services/moods"
)

type moodsService interface {
	Upsert(ctx context.Context, userID string, input models.MoodUpsert) (models.MoodEntry, error)
	Get(ctx context.Context, userID, date string) (models.MoodEntry, error)
	Delete(ctx context.Context, userID, date string) error
	List(ctx context.Context, userID, from, to string) ([]models.MoodEntry, error)
}

var _ moodsService = (*moods.Service)(nil)

type MoodsHandler struct {
	Service moodsService
	Users   userService
}

func NewMoodsHandler(service moodsService, users userService) *MoodsHandler {
	return &MoodsHandler{Service: service, Users: users}
}

// List returns entries in the from/to date range, defaulting to the last 30
// days.
func (h *MoodsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	query := r.URL.Query()
	entries, err := h.Service.List(r.Context(), userID, query.Get("from"), query.Get("to"))
	if err != nil {
		http.Error(w, err.Error(), moodsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Upsert writes the entry for one day, replacing any previous score.
func (h *MoodsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var input models.MoodUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.Service.Upsert(r.Context(), userID, input)
	if err != nil {
		http.Error(w, err.Error(), moodsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *MoodsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), userID, date); err != nil {
		http.Error(w, err.Error(), moodsErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MoodsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func moodsErrStatus(err error) int {
	switch {
	case errors.Is(err, moods.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, moods.ErrUserIDRequired),
		errors.Is(err, moods.ErrInvalidDate),
		errors.Is(err, moods.ErrInvalidScore):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
