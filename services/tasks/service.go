package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeboard/models"
)

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrTitleRequired   = errors.New("task title is required")
	ErrInvalidPriority = errors.New("importance and urgency must be between 1 and 3")
	ErrNotFound        = errors.New("task not found")
)

// Service stores todo items. Listing orders by Eisenhower score so the
// board's most pressing tasks come out first.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create stores a new task. Importance and urgency default to 1.
func (s *Service) Create(ctx context.Context, userID string, input models.TaskUpsert) (models.Task, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Task{}, ErrUserIDRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, ErrTitleRequired
	}

	task := models.Task{
		ID:         uuid.NewString(),
		Title:      title,
		Importance: 1,
		Urgency:    1,
		DueDate:    input.DueDate,
		CreatedAt:  time.Now().UTC(),
	}
	task.UpdatedAt = task.CreatedAt
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Importance != nil {
		task.Importance = *input.Importance
	}
	if input.Urgency != nil {
		task.Urgency = *input.Urgency
	}
	if !validPriority(task.Importance) || !validPriority(task.Urgency) {
		return models.Task{}, ErrInvalidPriority
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, importance, urgency, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, userID, task.Title, task.Description, task.Importance, task.Urgency,
		nullableTime(task.DueDate), formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// Update patches a task. Nil fields keep their stored values.
func (s *Service) Update(ctx context.Context, userID, taskID string, input models.TaskUpsert) (models.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Importance != nil {
		task.Importance = *input.Importance
	}
	if input.Urgency != nil {
		task.Urgency = *input.Urgency
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if !validPriority(task.Importance) || !validPriority(task.Urgency) {
		return models.Task{}, ErrInvalidPriority
	}
	task.UpdatedAt = time.Now().UTC()

	return task, s.persist(ctx, userID, task)
}

// Toggle flips the task's completion state.
func (s *Service) Toggle(ctx context.Context, userID, taskID string) (models.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	if task.Done() {
		task.CompletedAt = nil
	} else {
		task.CompletedAt = &now
	}
	task.UpdatedAt = now

	return task, s.persist(ctx, userID, task)
}

// Delete soft-deletes a task.
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = ? WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		formatTime(time.Now().UTC()), userID, taskID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
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

// Get returns one active task.
func (s *Service) Get(ctx context.Context, userID, taskID string) (models.Task, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Task{}, ErrUserIDRequired
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, importance, urgency, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		userID, taskID,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	return task, err
}

// List returns active tasks, open before done, each group ordered by
// priority score descending with creation time as the tie-break.
func (s *Service) List(ctx context.Context, userID string) ([]models.Task, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, importance, urgency, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE user_id = ? AND deleted_at IS NULL`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	list := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Done() != list[j].Done() {
			return !list[i].Done()
		}
		if list[i].Score() != list[j].Score() {
			return list[i].Score() > list[j].Score()
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (s *Service) persist(ctx context.Context, userID string, task models.Task) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, importance = ?, urgency = ?,
			due_date = ?, completed_at = ?, updated_at = ?
		WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		task.Title, task.Description, task.Importance, task.Urgency,
		nullableTime(task.DueDate), nullableTime(task.CompletedAt), formatTime(task.UpdatedAt),
		userID, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func validPriority(v int) bool {
	return v >= 1 && v <= 3
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var due, completed sql.NullString
	var created, updated string
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Importance, &task.Urgency,
		&due, &completed, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}
	task.DueDate = parseNullableTime(due)
	task.CompletedAt = parseNullableTime(completed)
	task.CreatedAt = parseTime(created)
	task.UpdatedAt = parseTime(updated)
	return task, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, value)
	return t
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil
	}
	return &t
}
