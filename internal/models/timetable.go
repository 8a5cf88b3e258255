package models

import "time"

// Timetable is a named bell schedule owned by one user. It applies to
// dates within its validity window whose weekday bit is set in the
// weekdays bitmask (Monday = bit 0 .. Sunday = bit 6, values 1..127).
type Timetable struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	ValidFrom  Date      `db:"valid_from" json:"valid_from"`
	ValidUntil *Date     `db:"valid_until" json:"valid_until,omitempty"`
	Weekdays   int       `db:"weekdays" json:"weekdays"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	Events []TimetableEvent `db:"-" json:"events,omitempty"`
}

// TimetableEvent is a single bell firing owned by exactly one
// timetable. Events spawned together from one template application
// share a template_instance_id; the anchor row carries
// is_template_base.
type TimetableEvent struct {
	ID                 string    `db:"id" json:"id"`
	TimetableID        string    `db:"timetable_id" json:"timetable_id"`
	EventName          string    `db:"event_name" json:"event_name"`
	EventTime          TimeOfDay `db:"event_time" json:"event_time"`
	SoundID            string    `db:"sound_id" json:"sound_id"`
	TemplateInstanceID *string   `db:"template_instance_id" json:"template_instance_id,omitempty"`
	IsTemplateBase     bool      `db:"is_template_base" json:"is_template_base"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
