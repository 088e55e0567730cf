package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lifeboard/models"
	"lifeboard/services/habits"
)

type habitsService interface {
	Create(ctx context.Context, userID, name string, frequency models.HabitFrequency) (models.Habit, error)
	Rename(ctx context.Context, userID, habitID, name string) (models.Habit, error)
	Delete(ctx context.Context, userID, habitID string) error
	List(ctx context.Context, userID string) ([]models.Habit, error)
	MarkDay(ctx context.Context, userID, habitID, date string) (models.HabitEntry, error)
	UnmarkDay(ctx context.Context, userID, habitID, date string) (bool, error)
	Entries(ctx context.Context, userID, habitID string) ([]models.HabitEntry, error)
}

var _ habitsService = (*habits.Service)(nil)

type HabitsHandler struct {
	Service habitsService
	Users   userService
}

func NewHabitsHandler(service habitsService, users userService) *HabitsHandler {
	return &HabitsHandler{Service: service, Users: users}
}

func (h *HabitsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *HabitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var body struct {
		Name      string                `json:"name"`
		Frequency models.HabitFrequency `json:"frequency,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	habit, err := h.Service.Create(r.Context(), userID, body.Name, body.Frequency)
	if err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

func (h *HabitsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	habitID := strings.TrimSpace(mux.Vars(r)["habitID"])

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	habit, err := h.Service.Rename(r.Context(), userID, habitID, body.Name)
	if err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	habitID := strings.TrimSpace(mux.Vars(r)["habitID"])

	if err := h.Service.Delete(r.Context(), userID, habitID); err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkDay records a completion for one calendar day.
func (h *HabitsHandler) MarkDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	habitID := strings.TrimSpace(mux.Vars(r)["habitID"])

	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.Service.MarkDay(r.Context(), userID, habitID, body.Date)
	if err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *HabitsHandler) UnmarkDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	habitID := strings.TrimSpace(mux.Vars(r)["habitID"])
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	removed, err := h.Service.UnmarkDay(r.Context(), userID, habitID, date)
	if err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}
	if !removed {
		http.Error(w, "day not marked", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HabitsHandler) Entries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	habitID := strings.TrimSpace(mux.Vars(r)["habitID"])

	entries, err := h.Service.Entries(r.Context(), userID, habitID)
	if err != nil {
		http.Error(w, err.Error(), habitsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *HabitsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func habitsErrStatus(err error) int {
	switch {
	case errors.Is(err, habits.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, habits.ErrUserIDRequired),
		errors.Is(err, habits.ErrNameRequired),
		errors.Is(err, habits.ErrInvalidFrequency),
		errors.Is(err, habits.ErrInvalidDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
