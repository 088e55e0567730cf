package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// WatchStatus describes a user's relationship to a library entry.
type WatchStatus string

const (
	WatchStatusWillWatch  WatchStatus = "will_watch"
	WatchStatusWatched    WatchStatus = "watched"
	WatchStatusWatchAgain WatchStatus = "watch_again"
)

var ErrInvalidWatchStatus = errors.New("watch status must be will_watch, watched or watch_again")

// ParseWatchStatus normalizes user-supplied status strings.
func ParseWatchStatus(value string) (WatchStatus, error) {
	switch WatchStatus(strings.ToLower(strings.TrimSpace(value))) {
	case WatchStatusWillWatch:
		return WatchStatusWillWatch, nil
	case WatchStatusWatched:
		return WatchStatusWatched, nil
	case WatchStatusWatchAgain:
		return WatchStatusWatchAgain, nil
	default:
		return "", ErrInvalidWatchStatus
	}
}

// ValidUserRating reports whether r is a half-star increment in [0.5, 5.0].
func ValidUserRating(r float64) bool {
	if r < 0.5 || r > 5.0 {
		return false
	}
	doubled := r * 2
	return math.Abs(doubled-math.Round(doubled)) < 1e-9
}

// LibraryEntry is a user's relationship to one ContentItem. There is at most
// one active entry per (user, content id, media kind); removal is a soft
// delete so the row keeps its history if the title is re-added.
type LibraryEntry struct {
	ContentID   int64       `json:"id"`
	Kind        MediaKind   `json:"kind"`
	Title       string      `json:"title"`
	Overview    string      `json:"overview,omitempty"`
	PosterURL   string      `json:"posterUrl,omitempty"`
	Rating      float64     `json:"rating,omitempty"` // provider rating snapshot
	GenreIDs    []int64     `json:"genreIds,omitempty"`
	WatchStatus WatchStatus `json:"watchStatus"`
	UserRating  *float64    `json:"userRating,omitempty"`
	UserComment string      `json:"userComment,omitempty"`
	WatchedDate *time.Time  `json:"watchedDate,omitempty"`
	AddedAt     time.Time   `json:"addedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Ref returns the entry's content identity.
func (e LibraryEntry) Ref() ContentRef {
	return ContentRef{ID: e.ContentID, Kind: e.Kind}
}

// LibraryUpsert captures data required to add a library entry.
type LibraryUpsert struct {
	ContentID   int64    `json:"id"`
	MediaType   string   `json:"mediaType"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	GenreIDs    []int64  `json:"genreIds,omitempty"`
	WatchStatus string   `json:"watchStatus,omitempty"`
	UserRating  *float64 `json:"userRating,omitempty"`
	UserComment string   `json:"userComment,omitempty"`
}

// LibraryUpdate captures a status, rating or comment change for an existing
// entry. Nil fields are left untouched.
type LibraryUpdate struct {
	ContentID   int64      `json:"id"`
	MediaType   string     `json:"mediaType"`
	WatchStatus *string    `json:"watchStatus,omitempty"`
	UserRating  *float64   `json:"userRating,omitempty"`
	UserComment *string    `json:"userComment,omitempty"`
	WatchedDate *time.Time `json:"watchedDate,omitempty"`
}

// NotInterestedEntry is a permanent exclusion marker for a ContentItem.
// Created when a user dismisses a recommendation, never mutated, removable
// by explicit action.
type NotInterestedEntry struct {
	ContentID int64     `json:"id"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ref returns the marker's content identity.
func (e NotInterestedEntry) Ref() ContentRef {
	return ContentRef{ID: e.ContentID, Kind: e.Kind}
}
