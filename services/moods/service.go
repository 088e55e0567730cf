package moods

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
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
	ErrInvalidScore   = errors.New("score must be between 1 and 5")
	ErrNotFound       = errors.New("mood entry not found")
)

const dateLayout = "2006-01-02"

// Service stores the mood journal: at most one entry per user per calendar
// day, overwritten in place when the day is logged again.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Upsert writes the entry for one day. An empty date means today.
func (s *Service) Upsert(ctx context.Context, userID string, input models.MoodUpsert) (models.MoodEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.MoodEntry{}, ErrUserIDRequired
	}
	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.MoodEntry{}, ErrInvalidDate
	}
	if input.Score < 1 || input.Score > 5 {
		return models.MoodEntry{}, ErrInvalidScore
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moods (user_id, entry_date, score, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, entry_date) DO UPDATE SET
			score = excluded.score, note = excluded.note, updated_at = excluded.updated_at`,
		userID, date, input.Score, input.Note, now, now,
	)
	if err != nil {
		return models.MoodEntry{}, fmt.Errorf("upsert mood: %w", err)
	}
	return s.Get(ctx, userID, date)
}

// Get returns the entry for one day.
func (s *Service) Get(ctx context.Context, userID, date string) (models.MoodEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.MoodEntry{}, ErrUserIDRequired
	}

	var entry models.MoodEntry
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_date, score, note, created_at, updated_at FROM moods
		WHERE user_id = ? AND entry_date = ?`,
		userID, date,
	).Scan(&entry.Date, &entry.Score, &entry.Note, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MoodEntry{}, ErrNotFound
	}
	if err != nil {
		return models.MoodEntry{}, fmt.Errorf("scan mood: %w", err)
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	entry.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return entry, nil
}

// Delete removes the entry for one day.
func (s *Service) Delete(ctx context.Context, userID, date string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM moods WHERE user_id = ? AND entry_date = ?`,
		userID, date,
	)
	if err != nil {
		return fmt.Errorf("delete mood: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns entries between from and to inclusive, newest first. Empty
// bounds default to the last 30 days.
func (s *Service) List(ctx context.Context, userID, from, to string) ([]models.MoodEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if to == "" {
		to = time.Now().UTC().Format(dateLayout)
	}
	if from == "" {
		from = time.Now().UTC().AddDate(0, 0, -30).Format(dateLayout)
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, ErrInvalidDate
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_date, score, note, created_at, updated_at FROM moods
		WHERE user_id = ? AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query moods: %w", err)
	}
	defer rows.Close()

	entries := make([]models.MoodEntry, 0)
	for rows.Next() {
		var entry models.MoodEntry
		var created, updated string
		if err := rows.Scan(&entry.Date, &entry.Score, &entry.Note, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entry.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
