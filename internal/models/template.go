package models

import "time"

// EventTemplate is a reusable, ordered set of bell events expressed as
// offsets from an anchor time.
type EventTemplate struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Items []EventTemplateItem `db:"-" json:"items"`
}

// EventTemplateItem is one entry of a template: a signed offset in
// minutes relative to the anchor, bounded to [-120, 120]. Multiple
// items may share an offset.
type EventTemplateItem struct {
	ID            string `db:"id" json:"id"`
	TemplateID    string `db:"template_id" json:"template_id"`
	OffsetMinutes int    `db:"offset_minutes" json:"offset_minutes"`
	EventName     string `db:"event_name" json:"event_name"`
	SoundID       string `db:"sound_id" json:"sound_id"`
	Position      int    `db:"position" json:"position"`
}
