package models

import (
	"errors"
	"fmt"
	"strings"
)

// MediaKind discriminates movie and TV content. It is assigned once when an
// item is ingested from the content provider and carried through every layer;
// nothing downstream infers the kind from field shapes.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

var ErrInvalidMediaKind = errors.New("media type must be movie or tv")

// ParseMediaKind normalizes user-supplied media type strings.
func ParseMediaKind(value string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies", "film":
		return MediaKindMovie, nil
	case "tv", "series", "show":
		return MediaKindTV, nil
	default:
		return "", ErrInvalidMediaKind
	}
}

// MediaFilter selects which kinds a listing covers. Empty means both.
type MediaFilter string

const (
	MediaFilterAll   MediaFilter = "all"
	MediaFilterMovie MediaFilter = MediaFilter(MediaKindMovie)
	MediaFilterTV    MediaFilter = MediaFilter(MediaKindTV)
)

// ParseMediaFilter accepts movie, tv, all or empty (treated as all).
func ParseMediaFilter(value string) (MediaFilter, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == "all" {
		return MediaFilterAll, nil
	}
	kind, err := ParseMediaKind(trimmed)
	if err != nil {
		return "", err
	}
	return MediaFilter(kind), nil
}

// Matches reports whether the filter includes the given kind.
func (f MediaFilter) Matches(kind MediaKind) bool {
	return f == MediaFilterAll || MediaKind(f) == kind
}

// ContentRef identifies a piece of content across the system.
type ContentRef struct {
	ID   int64     `json:"id"`
	Kind MediaKind `json:"kind"`
}

// Key returns a stable identifier combining kind and provider ID.
func (r ContentRef) Key() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ContentItem is an immutable snapshot of a title from the content provider.
// It is cached by value inside recommendation responses and never owned by
// the store.
type ContentItem struct {
	ID          int64     `json:"id"`
	Kind        MediaKind `json:"kind"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	BackdropURL string    `json:"backdropUrl,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	Popularity  float64   `json:"popularity,omitempty"`
	GenreIDs    []int64   `json:"genreIds,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
}

// Ref returns the item's identity.
func (c ContentItem) Ref() ContentRef {
	return ContentRef{ID: c.ID, Kind: c.Kind}
}

// Key returns a stable identifier combining kind and provider ID.
func (c ContentItem) Key() string {
	return c.Ref().Key()
}
