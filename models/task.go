package models

import "time"

// Task is a single todo item. Ordering on the board follows the Eisenhower
// score (importance times urgency, both 1-3), highest first.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Importance  int        `json:"importance"`
	Urgency     int        `json:"urgency"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Score returns the task's Eisenhower priority score.
func (t Task) Score() int {
	return t.Importance * t.Urgency
}

// Done reports whether the task has been completed.
func (t Task) Done() bool {
	return t.CompletedAt != nil
}

// TaskUpsert captures data to create or modify a task. Nil pointer fields on
// update leave the stored value untouched.
type TaskUpsert struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Importance  *int       `json:"importance,omitempty"`
	Urgency     *int       `json:"urgency,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}
