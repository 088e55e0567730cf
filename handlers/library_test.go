package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"lifeboard/handlers"
	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/library"
	"lifeboard/services/notinterested"
	"lifeboard/services/users"

	"github.com/gorilla/mux"
)

func newLibraryHandler(t *testing.T) (*handlers.LibraryHandler, *library.Service) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	userSvc, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create users service: %v", err)
	}

	librarySvc := library.NewService(db.Connection())
	dismissedSvc := notinterested.NewService(db.Connection())
	return handlers.NewLibraryHandler(librarySvc, dismissedSvc, userSvc), librarySvc
}

func TestLibraryAddAndList(t *testing.T) {
	h, _ := newLibraryHandler(t)
	userID := models.DefaultUserID

	body := models.LibraryUpsert{
		ContentID: 603,
		MediaType: "movie",
		Title:     "The Matrix",
		GenreIDs:  []int64{28, 878},
	}
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID+"/movie", bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"userID": userID})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/users/"+userID+"/movies", nil)
	reqList = mux.SetURLVars(reqList, map[string]string{"userID": userID})
	recList := httptest.NewRecorder()
	h.List(recList, reqList)

	if recList.Code != http.StatusOK {
		t.Fatalf("expected list status 200, got %d", recList.Code)
	}

	var listBody struct {
		Entries []models.LibraryEntry `json:"entries"`
		Count   int                   `json:"count"`
	}
	if err := json.Unmarshal(recList.Body.Bytes(), &listBody); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if listBody.Count != 1 || len(listBody.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", listBody.Count)
	}
	if listBody.Entries[0].Title != "The Matrix" || listBody.Entries[0].Kind != models.MediaKindMovie {
		t.Fatalf("unexpected entry returned: %+v", listBody.Entries[0])
	}
}

func TestLibraryAddDuplicateReturnsConflict(t *testing.T) {
	h, svc := newLibraryHandler(t)
	userID := models.DefaultUserID

	seed := models.LibraryUpsert{ContentID: 550, MediaType: "movie", Title: "Fight Club"}
	if _, err := svc.Add(context.Background(), userID, seed); err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}

	payload, _ := json.Marshal(seed)
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID+"/movie", bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"userID": userID})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error    string              `json:"error"`
		Existing models.LibraryEntry `json:"existing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode conflict response: %v", err)
	}
	if resp.Error == "" || resp.Existing.ContentID != 550 {
		t.Fatalf("expected existing entry in conflict body, got %+v", resp)
	}
}

func TestLibraryUpdateAndRemove(t *testing.T) {
	h, svc := newLibraryHandler(t)
	userID := models.DefaultUserID

	if _, err := svc.Add(context.Background(), userID, models.LibraryUpsert{ContentID: 27205, MediaType: "movie", Title: "Inception"}); err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}

	rating := 4.5
	status := string(models.WatchStatusWatched)
	update := models.LibraryUpdate{
		ContentID:   27205,
		MediaType:   "movie",
		WatchStatus: &status,
		UserRating:  &rating,
	}
	payload, _ := json.Marshal(update)
	req := httptest.NewRequest(http.MethodPut, "/api/users/"+userID+"/movie", bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"userID": userID})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entry models.LibraryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode update response: %v", err)
	}
	if entry.WatchStatus != models.WatchStatusWatched || entry.UserRating == nil || *entry.UserRating != 4.5 {
		t.Fatalf("unexpected updated entry: %+v", entry)
	}
	if entry.WatchedDate == nil {
		t.Fatalf("expected watched date to be stamped on watched status")
	}

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/users/"+userID+"/movie?media_type=movie&id=27205", nil)
	reqDel = mux.SetURLVars(reqDel, map[string]string{"userID": userID})
	recDel := httptest.NewRecorder()
	h.Remove(recDel, reqDel)

	if recDel.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recDel.Code)
	}

	reqGone := httptest.NewRequest(http.MethodDelete, "/api/users/"+userID+"/movie?media_type=movie&id=27205", nil)
	reqGone = mux.SetURLVars(reqGone, map[string]string{"userID": userID})
	recGone := httptest.NewRecorder()
	h.Remove(recGone, reqGone)

	if recGone.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for double remove, got %d", recGone.Code)
	}
}

func TestLibraryDismissIsIdempotent(t *testing.T) {
	h, _ := newLibraryHandler(t)
	userID := models.DefaultUserID

	payload := []byte(`{"id": 8392, "mediaType": "movie", "title": "Ponyo"}`)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID+"/movie/not-interested", bytes.NewReader(payload))
		req = mux.SetURLVars(req, map[string]string{"userID": userID})
		rec := httptest.NewRecorder()
		h.Dismiss(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 on dismiss %d, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/users/"+userID+"/movie/not-interested", nil)
	reqList = mux.SetURLVars(reqList, map[string]string{"userID": userID})
	recList := httptest.NewRecorder()
	h.Dismissed(recList, reqList)

	var listBody struct {
		Entries []models.NotInterestedEntry `json:"entries"`
		Count   int                         `json:"count"`
	}
	if err := json.Unmarshal(recList.Body.Bytes(), &listBody); err != nil {
		t.Fatalf("failed to decode dismissed response: %v", err)
	}
	if listBody.Count != 1 {
		t.Fatalf("expected a single marker after repeated dismiss, got %d", listBody.Count)
	}
}

func TestLibraryRejectsUnknownUser(t *testing.T) {
	h, _ := newLibraryHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost/movies", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "ghost"})
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown profile, got %d", rec.Code)
	}
}

func TestLibraryRejectsInvalidMediaType(t *testing.T) {
	h, _ := newLibraryHandler(t)
	userID := models.DefaultUserID

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID+"/movies?media_type=book", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": userID})
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid media type, got %d", rec.Code)
	}
}
