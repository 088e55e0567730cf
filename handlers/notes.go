package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lifeboard/models"
	"lifeboard/services/notes"
)

type notesService interface {
	Create(ctx context.Context, userID string, input models.NoteUpsert) (models.Note, error)
	Update(ctx context.Context, userID, noteID string, input models.NoteUpsert) (models.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
	Get(ctx context.Context, userID, noteID string) (models.Note, error)
	List(ctx context.Context, userID, query string) ([]models.Note, error)
}

var _ notesService = (*notes.Service)(nil)

type NotesHandler struct {
	Service notesService
	Users   userService
}

func NewNotesHandler(service notesService, users userService) *NotesHandler {
	return &NotesHandler{Service: service, Users: users}
}

// List returns notes, narrowed by the q query parameter when present.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, err.Error(), notesErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	noteID := strings.TrimSpace(mux.Vars(r)["noteID"])

	note, err := h.Service.Get(r.Context(), userID, noteID)
	if err != nil {
		http.Error(w, err.Error(), notesErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var input models.NoteUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	note, err := h.Service.Create(r.Context(), userID, input)
	if err != nil {
		http.Error(w, err.Error(), notesErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	noteID := strings.TrimSpace(mux.Vars(r)["noteID"])

	var input models.NoteUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	note, err := h.Service.Update(r.Context(), userID, noteID, input)
	if err != nil {
		http.Error(w, err.Error(), notesErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	noteID := strings.TrimSpace(mux.Vars(r)["noteID"])

	if err := h.Service.Delete(r.Context(), userID, noteID); err != nil {
		http.Error(w, err.Error(), notesErrStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotesHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func notesErrStatus(err error) int {
	switch {
	case errors.Is(err, notes.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, notes.ErrUserIDRequired),
		errors.Is(err, notes.ErrTitleRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
