package models

import "time"

// Note is a free-form text note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteUpsert captures data to create or modify a note. Nil fields on update
// leave the stored value untouched.
type NoteUpsert struct {
	Title   string  `json:"title"`
	Content *string `json:"content,omitempty"`
}
