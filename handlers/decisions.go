package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lifeboard/models"
	"lifeboard/services/decisions"
)

type decisionsService interface {
	Create(ctx context.Context, userID, name, description string) (models.Decision, error)
	Delete(ctx context.Context, userID, decisionID string) error
	List(ctx context.Context, userID string) ([]models.Decision, error)
	Get(ctx context.Context, userID, decisionID string) (models.Decision, error)
	AddCriterion(ctx context.Context, userID, decisionID, name string, weight float64) (models.DecisionCriterion, error)
	RemoveCriterion(ctx context.Context, userID, decisionID, criterionID string) error
	AddOption(ctx context.Context, userID, decisionID, name string) (models.DecisionOption, error)
	RemoveOption(ctx context.Context, userID, decisionID, optionID string) error
	SetScore(ctx context.Context, userID, decisionID, optionID, criterionID string, score float64) error
	Results(ctx context.Context, userID, decisionID string) ([]models.DecisionResult, error)
}

var _ decisionsService = (*decisions.Service)(nil)

type DecisionsHandler struct {
	Service decisionsService
	Users   userService
}

func NewDecisionsHandler(service decisionsService, users userService) *DecisionsHandler {
	return &DecisionsHandler{Service: service, Users: users}
}

func (h *DecisionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *DecisionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	decisionID := strings.TrimSpace(mux.Vars(r)["decisionID"])

	decision, err := h.Service.Get(r.Context(), userID, decisionID)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

func (h *DecisionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decision, err := h.Service.Create(r.Context(), userID, body.Name, body.Description)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, decision)
}

func (h *DecisionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	decisionID := strings.TrimSpace(mux.Vars(r)["decisionID"])

	if err := h.Service.Delete(r.Context(), userID, decisionID); err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DecisionsHandler) AddCriterion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	decisionID := strings.TrimSpace(mux.Vars(r)["decisionID"])

	var body struct {
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	criterion, err := h.Service.AddCriterion(r.Context(), userID, decisionID, body.Name, body.Weight)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, criterion)
}

func (h *DecisionsHandler) RemoveCriterion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	err := h.Service.RemoveCriterion(r.Context(), userID,
		strings.TrimSpace(vars["decisionID"]), strings.TrimSpace(vars["criterionID"]))
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DecisionsHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	decisionID := strings.TrimSpace(mux.Vars(r)["decisionID"])

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	option, err := h.Service.AddOption(r.Context(), userID, decisionID, body.Name)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, option)
}

func (h *DecisionsHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	err := h.Service.RemoveOption(r.Context(), userID,
		strings.TrimSpace(vars["decisionID"]), strings.TrimSpace(vars["optionID"]))
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetScore records how an option fares on one criterion.
func (h *DecisionsHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	decisionID := strings.TrimSpace(mux.Vars(r)["decisionID"])

	var body struct {
		OptionID    string  `json:"optionId"`
		CriterionID string  `json:"criterionId"`
		Score       float64 `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.Service.SetScore(r.Context(), userID, decisionID, body.OptionID, body.CriterionID, body.Score)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Results returns the computed weighted ranking.
func (h *DecisionsHandler) Results(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	decisionID := strings.TrimSpace(mux.Vars(r)["decisionID"])

	results, err := h.Service.Results(r.Context(), userID, decisionID)
	if err != nil {
		http.Error(w, err.Error(), decisionsErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *DecisionsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decisionsErrStatus(err error) int {
	switch {
	case errors.Is(err, decisions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, decisions.ErrUserIDRequired),
		errors.Is(err, decisions.ErrNameRequired),
		errors.Is(err, decisions.ErrInvalidWeight),
		errors.Is(err, decisions.ErrInvalidScore):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
