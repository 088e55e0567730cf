package habits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeboard/models"
)

var (
	ErrUserIDRequired   = errors.New("user id is required")
	ErrNameRequired     = errors.New("habit name is required")
	ErrInvalidFrequency = errors.New("frequency must be daily or weekly")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrNotFound         = errors.New("habit not found")
)

const dateLayout = "2006-01-02"

// Service stores habits and their per-day completion marks. History is a
// plain set of dated entries; aggregate math over it stays client-side.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create stores a new habit. Frequency defaults to daily.
func (s *Service) Create(ctx context.Context, userID, name string, frequency models.HabitFrequency) (models.Habit, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Habit{}, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Habit{}, ErrNameRequired
	}
	if frequency == "" {
		frequency = models.HabitDaily
	}
	if frequency != models.HabitDaily && frequency != models.HabitWeekly {
		return models.Habit{}, ErrInvalidFrequency
	}

	habit := models.Habit{
		ID:        uuid.NewString(),
		Name:      name,
		Frequency: frequency,
		CreatedAt: time.Now().UTC(),
	}
	habit.UpdatedAt = habit.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO habits (id, user_id, name, frequency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		habit.ID, userID, habit.Name, string(habit.Frequency),
		habit.CreatedAt.Format(time.RFC3339Nano), habit.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Habit{}, fmt.Errorf("insert habit: %w", err)
	}
	return habit, nil
}

// Rename changes a habit's name.
func (s *Service) Rename(ctx context.Context, userID, habitID, name string) (models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Habit{}, ErrNameRequired
	}
	habit, err := s.Get(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}

	habit.Name = name
	habit.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE habits SET name = ?, updated_at = ? WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		habit.Name, habit.UpdatedAt.Format(time.RFC3339Nano), strings.TrimSpace(userID), habitID,
	)
	if err != nil {
		return models.Habit{}, fmt.Errorf("update habit: %w", err)
	}
	return habit, nil
}

// Delete soft-deletes a habit. Its entries stay behind the cascade FK until
// the row is actually purged, but they stop being listed.
func (s *Service) Delete(ctx context.Context, userID, habitID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE habits SET deleted_at = ? WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano), userID, habitID,
	)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
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

// Get returns one active habit.
func (s *Service) Get(ctx context.Context, userID, habitID string) (models.Habit, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Habit{}, ErrUserIDRequired
	}

	var habit models.Habit
	var frequency, created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, frequency, created_at, updated_at FROM habits
		WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		userID, habitID,
	).Scan(&habit.ID, &habit.Name, &frequency, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, ErrNotFound
	}
	if err != nil {
		return models.Habit{}, fmt.Errorf("scan habit: %w", err)
	}
	habit.Frequency = models.HabitFrequency(frequency)
	habit.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	habit.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return habit, nil
}

// List returns active habits in creation order.
func (s *Service) List(ctx context.Context, userID string) ([]models.Habit, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, frequency, created_at, updated_at FROM habits
		WHERE user_id = ? AND deleted_at IS NULL ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	list := make([]models.Habit, 0)
	for rows.Next() {
		var habit models.Habit
		var frequency, created, updated string
		if err := rows.Scan(&habit.ID, &habit.Name, &frequency, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habit.Frequency = models.HabitFrequency(frequency)
		habit.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		habit.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		list = append(list, habit)
	}
	return list, rows.Err()
}

// MarkDay records a completion for one calendar day. Idempotent: marking an
// already-marked day changes nothing.
func (s *Service) MarkDay(ctx context.Context, userID, habitID, date string) (models.HabitEntry, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.HabitEntry{}, ErrInvalidDate
	}
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return models.HabitEntry{}, err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO habit_entries (habit_id, entry_date, created_at) VALUES (?, ?, ?)
		ON CONFLICT (habit_id, entry_date) DO NOTHING`,
		habitID, date, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.HabitEntry{}, fmt.Errorf("insert habit entry: %w", err)
	}

	var entry models.HabitEntry
	var created string
	err = s.db.QueryRowContext(ctx,
		`SELECT habit_id, entry_date, created_at FROM habit_entries WHERE habit_id = ? AND entry_date = ?`,
		habitID, date,
	).Scan(&entry.HabitID, &entry.Date, &created)
	if err != nil {
		return models.HabitEntry{}, fmt.Errorf("scan habit entry: %w", err)
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return entry, nil
}

// UnmarkDay removes a completion mark. Returns false if the day was not
// marked.
func (s *Service) UnmarkDay(ctx context.Context, userID, habitID, date string) (bool, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return false, ErrInvalidDate
	}
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM habit_entries WHERE habit_id = ? AND entry_date = ?`,
		habitID, date,
	)
	if err != nil {
		return false, fmt.Errorf("delete habit entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Entries returns a habit's completion history, most recent day first.
func (s *Service) Entries(ctx context.Context, userID, habitID string) ([]models.HabitEntry, error) {
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT habit_id, entry_date, created_at FROM habit_entries
		WHERE habit_id = ? ORDER BY entry_date DESC`,
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("query habit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HabitEntry, 0)
	for rows.Next() {
		var entry models.HabitEntry
		var created string
		if err := rows.Scan(&entry.HabitID, &entry.Date, &created); err != nil {
			return nil, fmt.Errorf("scan habit entry: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
