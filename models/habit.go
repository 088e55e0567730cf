package models

import "time"

// HabitFrequency declares how often a habit is meant to be completed.
type HabitFrequency string

const (
	HabitDaily  HabitFrequency = "daily"
	HabitWeekly HabitFrequency = "weekly"
)

// Habit is a recurring practice the user tracks. Completion history lives in
// dated HabitEntry records, one per habit per day.
type Habit struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Frequency HabitFrequency `json:"frequency"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// HabitEntry records that a habit was completed on a calendar day. The date
// is stored as YYYY-MM-DD; marking the same day twice is a no-op.
type HabitEntry struct {
	HabitID   string    `json:"habitId"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}
