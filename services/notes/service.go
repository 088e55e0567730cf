package notes

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
	ErrUserIDRequired = errors.New("user id is required")
	ErrTitleRequired  = errors.New("note title is required")
	ErrNotFound       = errors.New("note not found")
)

// Service stores free-form notes with substring search over title and body.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create stores a new note.
func (s *Service) Create(ctx context.Context, userID string, input models.NoteUpsert) (models.Note, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Note{}, ErrUserIDRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Note{}, ErrTitleRequired
	}

	note := models.Note{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	note.UpdatedAt = note.CreatedAt
	if input.Content != nil {
		note.Content = *input.Content
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, userID, note.Title, note.Content,
		note.CreatedAt.Format(time.RFC3339Nano), note.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// Update patches a note. An empty title and nil content keep stored values.
func (s *Service) Update(ctx context.Context, userID, noteID string, input models.NoteUpsert) (models.Note, error) {
	note, err := s.Get(ctx, userID, noteID)
	if err != nil {
		return models.Note{}, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		note.Title = title
	}
	if input.Content != nil {
		note.Content = *input.Content
	}
	note.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ?
		WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		note.Title, note.Content, note.UpdatedAt.Format(time.RFC3339Nano),
		strings.TrimSpace(userID), noteID,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}

// Delete soft-deletes a note.
func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ? WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano), userID, noteID,
	)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
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

// Get returns one active note.
func (s *Service) Get(ctx context.Context, userID, noteID string) (models.Note, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Note{}, ErrUserIDRequired
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM notes
		WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		userID, noteID,
	)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNotFound
	}
	return note, err
}

// List returns active notes, most recently updated first. A non-empty query
// narrows results to notes whose title or content contains it,
// case-insensitively.
func (s *Service) List(ctx context.Context, userID, query string) ([]models.Note, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	sqlQuery := `SELECT id, title, content, created_at, updated_at FROM notes
		WHERE user_id = ? AND deleted_at IS NULL`
	args := []any{userID}
	if query = strings.TrimSpace(query); query != "" {
		sqlQuery += ` AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(query) + "%"
		args = append(args, pattern, pattern)
	}
	sqlQuery += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	list := make([]models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, note)
	}
	return list, rows.Err()
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer("%", `\%`, "_", `\_`, `\`, `\\`)
	return replacer.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (models.Note, error) {
	var note models.Note
	var created, updated string
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, err
		}
		return models.Note{}, fmt.Errorf("scan note: %w", err)
	}
	note.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	note.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return note, nil
}
