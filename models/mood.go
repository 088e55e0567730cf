package models

import "time"

// MoodEntry is one journal entry per user per calendar day. Writing the same
// day again replaces the score and note.
type MoodEntry struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	Score     int       `json:"score"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MoodUpsert captures a mood journal write.
type MoodUpsert struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
	Note  string `json:"note,omitempty"`
}
