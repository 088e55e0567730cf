package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lifeboard/models"
	"lifeboard/services/tasks"
)

type tasksService interface {
	Create(ctx context.Context, userID string, input models.TaskUpsert) (models.Task, error)
	Update(ctx context.Context, userID, taskID string, input models.TaskUpsert) (models.Task, error)
	Toggle(ctx context.Context, userID, taskID string) (models.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	List(ctx context.Context, userID string) ([]models.Task, error)
}

var _ tasksService = (*tasks.Service)(nil)

type TasksHandler struct {
	Service tasksService
	Users   userService
}

func NewTasksHandler(service tasksService, users userService) *TasksHandler {
	return &TasksHandler{Service: service, Users: users}
}

func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), tasksErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var input models.TaskUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.Service.Create(r.Context(), userID, input)
	if err != nil {
		http.Error(w, err.Error(), tasksErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	taskID := strings.TrimSpace(mux.Vars(r)["taskID"])

	var input models.TaskUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.Service.Update(r.Context(), userID, taskID, input)
	if err != nil {
		http.Error(w, err.Error(), tasksErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Toggle flips completion state.
func (h *TasksHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	taskID := strings.TrimSpace(mux.Vars(r)["taskID"])

	task, err := h.Service.Toggle(r.Context(), userID, taskID)
	if err != nil {
		http.Error(w, err.Error(), tasksErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	taskID := strings.TrimSpace(mux.Vars(r)["taskID"])

	if err := h.Service.Delete(r.Context(), userID, taskID); err != nil {
		http.Error(w, err.Error(), tasksErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TasksHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func tasksErrStatus(err error) int {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tasks.ErrUserIDRequired),
		errors.Is(err, tasks.ErrTitleRequired),
		errors.Is(err, tasks.ErrInvalidPriority):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
