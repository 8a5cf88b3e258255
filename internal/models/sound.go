package models

import "time"

// Sound is a named bell sound backed by an audio file on disk.
type Sound struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Filename  string    `db:"filename" json:"filename"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
