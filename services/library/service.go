package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifeboard/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrIDRequired     = errors.New("id is required")
	ErrTitleRequired  = errors.New("title is required")
	ErrInvalidRating  = errors.New("rating must be a half-star increment between 0.5 and 5.0")
	ErrNotFound       = errors.New("library entry not found")
)

// ConflictError reports a duplicate add and carries the existing entry so
// the client can reconcile without a refetch.
type ConflictError struct {
	Existing models.LibraryEntry
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already in the library", e.Existing.Ref().Key())
}

// Service manages persistence of user library entries. Removal is a soft
// delete; removed entries drop out of listings and the exclusion set but the
// row survives so re-adding revives it.
type Service struct {
	db *sql.DB
}

// NewService creates a library service on the given database connection.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const entryColumns = `content_id, media_kind, title, overview, poster_url, rating,
	genre_ids, watch_status, user_rating, user_comment, watched_date, added_at, updated_at`

// Add inserts a new entry. Adding a title that already has an active entry
// returns a ConflictError with the existing record; adding over a removed
// entry revives it with the new data.
func (s *Service) Add(ctx context.Context, userID string, input models.LibraryUpsert) (models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.LibraryEntry{}, ErrUserIDRequired
	}
	if input.ContentID == 0 {
		return models.LibraryEntry{}, ErrIDRequired
	}
	if strings.TrimSpace(input.Title) == "" {
		return models.LibraryEntry{}, ErrTitleRequired
	}

	kind, err := models.ParseMediaKind(input.MediaType)
	if err != nil {
		return models.LibraryEntry{}, err
	}

	status := models.WatchStatusWillWatch
	if strings.TrimSpace(input.WatchStatus) != "" {
		status, err = models.ParseWatchStatus(input.WatchStatus)
		if err != nil {
			return models.LibraryEntry{}, err
		}
	}
	if input.UserRating != nil && !models.ValidUserRating(*input.UserRating) {
		return models.LibraryEntry{}, ErrInvalidRating
	}

	existing, removed, err := s.get(ctx, userID, kind, input.ContentID)
	if err != nil {
		return models.LibraryEntry{}, err
	}
	if existing != nil && !removed {
		return models.LibraryEntry{}, &ConflictError{Existing: *existing}
	}

	now := time.Now().UTC()
	entry := models.LibraryEntry{
		ContentID:   input.ContentID,
		Kind:        kind,
		Title:       input.Title,
		Overview:    input.Overview,
		PosterURL:   input.PosterURL,
		Rating:      input.Rating,
		GenreIDs:    input.GenreIDs,
		WatchStatus: status,
		UserRating:  input.UserRating,
		UserComment: input.UserComment,
		AddedAt:     now,
		UpdatedAt:   now,
	}
	if status != models.WatchStatusWillWatch {
		entry.WatchedDate = &now
	}

	genres, err := json.Marshal(entry.GenreIDs)
	if err != nil {
		return models.LibraryEntry{}, fmt.Errorf("marshal genres: %w", err)
	}

	if existing != nil {
		// Revive the soft-deleted row.
		_, err = s.db.ExecContext(ctx,
			`UPDATE library_entries SET title = ?, overview = ?, poster_url = ?, rating = ?,
				genre_ids = ?, watch_status = ?, user_rating = ?, user_comment = ?,
				watched_date = ?, added_at = ?, updated_at = ?, removed_at = NULL
			WHERE user_id = ? AND media_kind = ? AND content_id = ?`,
			entry.Title, entry.Overview, entry.PosterURL, entry.Rating,
			string(genres), string(entry.WatchStatus), entry.UserRating, entry.UserComment,
			nullableTime(entry.WatchedDate), formatTime(now), formatTime(now),
			userID, string(kind), entry.ContentID,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO library_entries (user_id, content_id, media_kind, title, overview,
				poster_url, rating, genre_ids, watch_status, user_rating, user_comment,
				watched_date, added_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, entry.ContentID, string(kind), entry.Title, entry.Overview,
			entry.PosterURL, entry.Rating, string(genres), string(entry.WatchStatus),
			entry.UserRating, entry.UserComment, nullableTime(entry.WatchedDate),
			formatTime(now), formatTime(now),
		)
	}
	if err != nil {
		return models.LibraryEntry{}, fmt.Errorf("insert library entry: %w", err)
	}

	return entry, nil
}

// Update applies a status/rating/comment change to an active entry.
func (s *Service) Update(ctx context.Context, userID string, input models.LibraryUpdate) (models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.LibraryEntry{}, ErrUserIDRequired
	}
	if input.ContentID == 0 {
		return models.LibraryEntry{}, ErrIDRequired
	}

	kind, err := models.ParseMediaKind(input.MediaType)
	if err != nil {
		return models.LibraryEntry{}, err
	}

	entry, removed, err := s.get(ctx, userID, kind, input.ContentID)
	if err != nil {
		return models.LibraryEntry{}, err
	}
	if entry == nil || removed {
		return models.LibraryEntry{}, ErrNotFound
	}

	now := time.Now().UTC()
	if input.WatchStatus != nil {
		status, err := models.ParseWatchStatus(*input.WatchStatus)
		if err != nil {
			return models.LibraryEntry{}, err
		}
		entry.WatchStatus = status
		if status != models.WatchStatusWillWatch && entry.WatchedDate == nil {
			entry.WatchedDate = &now
		}
	}
	if input.UserRating != nil {
		if !models.ValidUserRating(*input.UserRating) {
			return models.LibraryEntry{}, ErrInvalidRating
		}
		entry.UserRating = input.UserRating
	}
	if input.UserComment != nil {
		entry.UserComment = *input.UserComment
	}
	if input.WatchedDate != nil {
		entry.WatchedDate = input.WatchedDate
	}
	entry.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`UPDATE library_entries SET watch_status = ?, user_rating = ?, user_comment = ?,
			watched_date = ?, updated_at = ?
		WHERE user_id = ? AND media_kind = ? AND content_id = ? AND removed_at IS NULL`,
		string(entry.WatchStatus), entry.UserRating, entry.UserComment,
		nullableTime(entry.WatchedDate), formatTime(now),
		userID, string(kind), input.ContentID,
	)
	if err != nil {
		return models.LibraryEntry{}, fmt.Errorf("update library entry: %w", err)
	}

	return *entry, nil
}

// Remove soft-deletes an entry. Returns false if no active entry existed.
func (s *Service) Remove(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if contentID == 0 {
		return false, ErrIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE library_entries SET removed_at = ?, updated_at = ?
		WHERE user_id = ? AND media_kind = ? AND content_id = ? AND removed_at IS NULL`,
		formatTime(time.Now().UTC()), formatTime(time.Now().UTC()),
		userID, string(kind), contentID,
	)
	if err != nil {
		return false, fmt.Errorf("remove library entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Get returns the active entry for one title, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (models.LibraryEntry, error) {
	entry, removed, err := s.get(ctx, userID, kind, contentID)
	if err != nil {
		return models.LibraryEntry{}, err
	}
	if entry == nil || removed {
		return models.LibraryEntry{}, ErrNotFound
	}
	return *entry, nil
}

// List returns active entries, most recently added first, optionally
// filtered by watch status and media kind.
func (s *Service) List(ctx context.Context, userID string, filter models.MediaFilter, status models.WatchStatus) ([]models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	query := `SELECT ` + entryColumns + ` FROM library_entries
		WHERE user_id = ? AND removed_at IS NULL`
	args := []any{userID}
	if filter != models.MediaFilterAll && filter != "" {
		query += ` AND media_kind = ?`
		args = append(args, string(filter))
	}
	if status != "" {
		query += ` AND watch_status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY added_at DESC, content_id ASC`

	return s.queryEntries(ctx, query, args...)
}

// HighlyRated returns active entries with a user rating at or above the
// threshold, most recently updated first. These seed the personalized
// recommendation strategies.
func (s *Service) HighlyRated(ctx context.Context, userID string, threshold float64) ([]models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM library_entries
		WHERE user_id = ? AND removed_at IS NULL AND user_rating >= ?
		ORDER BY updated_at DESC, content_id ASC`,
		userID, threshold,
	)
}

// Refs returns the content identities of every active entry, regardless of
// watch status. Used by the exclusion set builder.
func (s *Service) Refs(ctx context.Context, userID string) ([]models.ContentRef, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_id, media_kind FROM library_entries
		WHERE user_id = ? AND removed_at IS NULL`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query library refs: %w", err)
	}
	defer rows.Close()

	var refs []models.ContentRef
	for rows.Next() {
		var ref models.ContentRef
		var kind string
		if err := rows.Scan(&ref.ID, &kind); err != nil {
			return nil, fmt.Errorf("scan library ref: %w", err)
		}
		ref.Kind = models.MediaKind(kind)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Service) get(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (*models.LibraryEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+`, removed_at FROM library_entries
		WHERE user_id = ? AND media_kind = ? AND content_id = ?`,
		userID, string(kind), contentID,
	)

	var (
		entry       models.LibraryEntry
		kindRaw     string
		statusRaw   string
		genresRaw   string
		watchedRaw  sql.NullString
		addedRaw    string
		updatedRaw  string
		removedRaw  sql.NullString
		userRating  sql.NullFloat64
	)
	err := row.Scan(&entry.ContentID, &kindRaw, &entry.Title, &entry.Overview,
		&entry.PosterURL, &entry.Rating, &genresRaw, &statusRaw, &userRating,
		&entry.UserComment, &watchedRaw, &addedRaw, &updatedRaw, &removedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get library entry: %w", err)
	}

	hydrateEntry(&entry, kindRaw, statusRaw, genresRaw, userRating, watchedRaw, addedRaw, updatedRaw)
	return &entry, removedRaw.Valid, nil
}

func (s *Service) queryEntries(ctx context.Context, query string, args ...any) ([]models.LibraryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query library entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LibraryEntry, 0)
	for rows.Next() {
		var (
			entry      models.LibraryEntry
			kindRaw    string
			statusRaw  string
			genresRaw  string
			watchedRaw sql.NullString
			addedRaw   string
			updatedRaw string
			userRating sql.NullFloat64
		)
		if err := rows.Scan(&entry.ContentID, &kindRaw, &entry.Title, &entry.Overview,
			&entry.PosterURL, &entry.Rating, &genresRaw, &statusRaw, &userRating,
			&entry.UserComment, &watchedRaw, &addedRaw, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan library entry: %w", err)
		}
		hydrateEntry(&entry, kindRaw, statusRaw, genresRaw, userRating, watchedRaw, addedRaw, updatedRaw)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func hydrateEntry(entry *models.LibraryEntry, kind, status, genres string, userRating sql.NullFloat64, watched sql.NullString, added, updated string) {
	entry.Kind = models.MediaKind(kind)
	entry.WatchStatus = models.WatchStatus(status)
	if genres != "" {
		_ = json.Unmarshal([]byte(genres), &entry.GenreIDs)
	}
	if userRating.Valid {
		r := userRating.Float64
		entry.UserRating = &r
	}
	if watched.Valid {
		if t, err := time.Parse(time.RFC3339Nano, watched.String); err == nil {
			entry.WatchedDate = &t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, added); err == nil {
		entry.AddedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		entry.UpdatedAt = t
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
