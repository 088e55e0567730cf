package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lifeboard/models"
	"lifeboard/services/library"
	"lifeboard/services/notinterested"
)

type libraryService interface {
	Add(ctx context.Context, userID string, input models.LibraryUpsert) (models.LibraryEntry, error)
	Update(ctx context.Context, userID string, input models.LibraryUpdate) (models.LibraryEntry, error)
	Remove(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (bool, error)
	Get(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (models.LibraryEntry, error)
	List(ctx context.Context, userID string, filter models.MediaFilter, status models.WatchStatus) ([]models.LibraryEntry, error)
}

type notInterestedService interface {
	Add(ctx context.Context, userID string, kind models.MediaKind, contentID int64, title string) (models.NotInterestedEntry, error)
	Remove(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (bool, error)
	List(ctx context.Context, userID string) ([]models.NotInterestedEntry, error)
}

var (
	_ libraryService       = (*library.Service)(nil)
	_ notInterestedService = (*notinterested.Service)(nil)
)

type LibraryHandler struct {
	Library       libraryService
	NotInterested notInterestedService
	Users         userService
}

func NewLibraryHandler(lib libraryService, dismissed notInterestedService, users userService) *LibraryHandler {
	return &LibraryHandler{Library: lib, NotInterested: dismissed, Users: users}
}

// Add creates a library entry. Adding a title that is already active returns
// 409 with the existing entry so the client can show it instead.
func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var input models.LibraryUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.Library.Add(r.Context(), userID, input)
	if err != nil {
		var conflict *library.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":    "already in library",
				"existing": conflict.Existing,
			})
			return
		}
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// Update patches watch status, rating, comment or watched date.
func (h *LibraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var input models.LibraryUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.Library.Update(r.Context(), userID, input)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Remove soft-deletes a library entry.
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	kind, contentID, ok := contentIdentity(w, r)
	if !ok {
		return
	}

	removed, err := h.Library.Remove(r.Context(), userID, kind, contentID)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}
	if !removed {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get returns one library entry.
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	kind, contentID, ok := contentIdentity(w, r)
	if !ok {
		return
	}

	entry, err := h.Library.Get(r.Context(), userID, kind, contentID)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// List returns library entries, optionally narrowed by media_type and
// status query parameters.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	filter, err := models.ParseMediaFilter(r.URL.Query().Get("media_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var status models.WatchStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err = models.ParseWatchStatus(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	entries, err := h.Library.List(r.Context(), userID, filter, status)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

// Dismiss records a not-interested marker. Repeating the call for the same
// title is a no-op, never a duplicate.
func (h *LibraryHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var body struct {
		ContentID int64  `json:"id"`
		MediaType string `json:"mediaType"`
		Title     string `json:"title,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind, err := models.ParseMediaKind(body.MediaType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.NotInterested.Add(r.Context(), userID, kind, body.ContentID, body.Title)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Undismiss removes a not-interested marker.
func (h *LibraryHandler) Undismiss(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	kind, contentID, ok := contentIdentity(w, r)
	if !ok {
		return
	}

	removed, err := h.NotInterested.Remove(r.Context(), userID, kind, contentID)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}
	if !removed {
		http.Error(w, "marker not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Dismissed lists the user's not-interested markers.
func (h *LibraryHandler) Dismissed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	entries, err := h.NotInterested.List(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), libraryErrStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (h *LibraryHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// contentIdentity reads the id and media_type query parameters used by
// delete-style endpoints.
func contentIdentity(w http.ResponseWriter, r *http.Request) (models.MediaKind, int64, bool) {
	kind, err := models.ParseMediaKind(r.URL.Query().Get("media_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", 0, false
	}

	contentID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("id")), 10, 64)
	if err != nil || contentID == 0 {
		http.Error(w, "id must be a positive integer", http.StatusBadRequest)
		return "", 0, false
	}

	return kind, contentID, true
}

func libraryErrStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrUserIDRequired),
		errors.Is(err, library.ErrIDRequired),
		errors.Is(err, library.ErrTitleRequired),
		errors.Is(err, library.ErrInvalidRating),
		errors.Is(err, models.ErrInvalidMediaKind),
		errors.Is(err, models.ErrInvalidWatchStatus),
		errors.Is(err, notinterested.ErrUserIDRequired),
		errors.Is(err, notinterested.ErrIDRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
