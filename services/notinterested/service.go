package notinterested

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifeboard/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrIDRequired     = errors.New("id is required")
)

// Service manages permanent exclusion markers. Marking the same title twice
// is a no-op, never a duplicate; removal is an explicit action.
type Service struct {
	db *sql.DB
}

// NewService creates a not-interested service on the given connection.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Add records a marker. Idempotent: a second call for the same (user, id,
// kind) leaves the original row untouched and returns it.
func (s *Service) Add(ctx context.Context, userID string, kind models.MediaKind, contentID int64, title string) (models.NotInterestedEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.NotInterestedEntry{}, ErrUserIDRequired
	}
	if contentID == 0 {
		return models.NotInterestedEntry{}, ErrIDRequired
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO not_interested (user_id, content_id, media_kind, title, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, media_kind, content_id) DO NOTHING`,
		userID, contentID, string(kind), title, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.NotInterestedEntry{}, fmt.Errorf("insert not-interested: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT content_id, media_kind, title, created_at FROM not_interested
		WHERE user_id = ? AND media_kind = ? AND content_id = ?`,
		userID, string(kind), contentID,
	)
	return scanEntry(row)
}

// Remove deletes a marker. Returns false if none existed.
func (s *Service) Remove(ctx context.Context, userID string, kind models.MediaKind, contentID int64) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if contentID == 0 {
		return false, ErrIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM not_interested WHERE user_id = ? AND media_kind = ? AND content_id = ?`,
		userID, string(kind), contentID,
	)
	if err != nil {
		return false, fmt.Errorf("delete not-interested: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// List returns all markers, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.NotInterestedEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_id, media_kind, title, created_at FROM not_interested
		WHERE user_id = ? ORDER BY created_at DESC, content_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query not-interested: %w", err)
	}
	defer rows.Close()

	entries := make([]models.NotInterestedEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Refs returns the content identities of every marker. Used by the exclusion
// set builder.
func (s *Service) Refs(ctx context.Context, userID string) ([]models.ContentRef, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_id, media_kind FROM not_interested WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query not-interested refs: %w", err)
	}
	defer rows.Close()

	var refs []models.ContentRef
	for rows.Next() {
		var ref models.ContentRef
		var kind string
		if err := rows.Scan(&ref.ID, &kind); err != nil {
			return nil, fmt.Errorf("scan not-interested ref: %w", err)
		}
		ref.Kind = models.MediaKind(kind)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.NotInterestedEntry, error) {
	var entry models.NotInterestedEntry
	var kind, created string
	if err := row.Scan(&entry.ContentID, &kind, &entry.Title, &created); err != nil {
		return models.NotInterestedEntry{}, fmt.Errorf("scan not-interested: %w", err)
	}
	entry.Kind = models.MediaKind(kind)
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		entry.CreatedAt = t
	}
	return entry, nil
}
