package models

import "time"

// Holiday is a system-wide closed date interval during which no bell
// events fire. Overlapping holidays are permitted and treated as a
// union.
type Holiday struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	ValidFrom  Date      `db:"valid_from" json:"valid_from"`
	ValidUntil Date      `db:"valid_until" json:"valid_until"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
