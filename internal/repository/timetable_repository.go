package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lible-app/lible-api/internal/models"
)

const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether the error is a Postgres unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// TimetableRepository persists timetables and their events.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByOwner returns all timetables of one owner, events included.
// The two queries run inside a read-only transaction so the resolver
// always sees a consistent snapshot, never a timetable mid-edit.
func (r *TimetableRepository) ListByOwner(ctx context.Context, userID string) ([]models.Timetable, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin timetable snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `SELECT id, user_id, name, valid_from, valid_until, weekdays, created_at, updated_at
FROM timetables WHERE user_id = $1 ORDER BY valid_from DESC, created_at DESC`
	var timetables []models.Timetable
	if err := tx.SelectContext(ctx, &timetables, query, userID); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	if len(timetables) == 0 {
		return timetables, tx.Commit()
	}

	ids := make([]string, len(timetables))
	index := make(map[string]int, len(timetables))
	for i, tt := range timetables {
		ids[i] = tt.ID
		index[tt.ID] = i
	}

	const eventsQuery = `SELECT id, timetable_id, event_name, event_time, sound_id, template_instance_id, is_template_base, created_at
FROM timetable_events WHERE timetable_id = ANY($1) ORDER BY event_time ASC, created_at ASC`
	var events []models.TimetableEvent
	if err := tx.SelectContext(ctx, &events, eventsQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list timetable events: %w", err)
	}
	for _, ev := range events {
		i := index[ev.TimetableID]
		timetables[i].Events = append(timetables[i].Events, ev)
	}

	return timetables, tx.Commit()
}

// GetByID fetches one timetable scoped to its owner, events included.
func (r *TimetableRepository) GetByID(ctx context.Context, id, userID string) (*models.Timetable, error) {
	const query = `SELECT id, user_id, name, valid_from, valid_until, weekdays, created_at, updated_at
FROM timetables WHERE id = $1 AND user_id = $2`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, id, userID); err != nil {
		return nil, err
	}

	events, err := r.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	tt.Events = events
	return &tt, nil
}

// Create inserts a timetable.
func (r *TimetableRepository) Create(ctx context.Context, tt *models.Timetable) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now
	const query = `INSERT INTO timetables (id, user_id, name, valid_from, valid_until, weekdays, created_at, updated_at)
VALUES (:id, :user_id, :name, :valid_from, :valid_until, :weekdays, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tt); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of a timetable: name, validity
// window and weekday mask. Identity and ownership never change here.
func (r *TimetableRepository) Update(ctx context.Context, tt *models.Timetable) error {
	tt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetables SET name = :name, valid_from = :valid_from, valid_until = :valid_until,
weekdays = :weekdays, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, tt); err != nil {
		return fmt.Errorf("update timetable: %w", err)
	}
	return nil
}

// Delete removes a timetable and all its events atomically. An event
// cannot outlive its timetable; callers rely on this contract instead
// of database-level cascade configuration.
func (r *TimetableRepository) Delete(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM timetable_events WHERE timetable_id = $1", id); err != nil {
		return fmt.Errorf("delete timetable events: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM timetables WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return tx.Commit()
}

// ListEvents returns a timetable's events ordered by time.
func (r *TimetableRepository) ListEvents(ctx context.Context, timetableID string) ([]models.TimetableEvent, error) {
	const query = `SELECT id, timetable_id, event_name, event_time, sound_id, template_instance_id, is_template_base, created_at
FROM timetable_events WHERE timetable_id = $1 ORDER BY event_time ASC, created_at ASC`
	var events []models.TimetableEvent
	if err := r.db.SelectContext(ctx, &events, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable events: %w", err)
	}
	return events, nil
}

// GetEvent fetches one event scoped to its timetable.
func (r *TimetableRepository) GetEvent(ctx context.Context, eventID, timetableID string) (*models.TimetableEvent, error) {
	const query = `SELECT id, timetable_id, event_name, event_time, sound_id, template_instance_id, is_template_base, created_at
FROM timetable_events WHERE id = $1 AND timetable_id = $2`
	var ev models.TimetableEvent
	if err := r.db.GetContext(ctx, &ev, query, eventID, timetableID); err != nil {
		return nil, err
	}
	return &ev, nil
}

// CreateEvent inserts a timetable event.
func (r *TimetableRepository) CreateEvent(ctx context.Context, ev *models.TimetableEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_events (id, timetable_id, event_name, event_time, sound_id, template_instance_id, is_template_base, created_at)
VALUES (:id, :timetable_id, :event_name, :event_time, :sound_id, :template_instance_id, :is_template_base, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ev); err != nil {
		return fmt.Errorf("create timetable event: %w", err)
	}
	return nil
}

// UpdateEvent modifies an event's name, time and sound.
func (r *TimetableRepository) UpdateEvent(ctx context.Context, ev *models.TimetableEvent) error {
	const query = `UPDATE timetable_events SET event_name = :event_name, event_time = :event_time, sound_id = :sound_id
WHERE id = :id AND timetable_id = :timetable_id`
	if _, err := r.db.NamedExecContext(ctx, query, ev); err != nil {
		return fmt.Errorf("update timetable event: %w", err)
	}
	return nil
}

// DeleteEvent removes one event.
func (r *TimetableRepository) DeleteEvent(ctx context.Context, eventID, timetableID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM timetable_events WHERE id = $1 AND timetable_id = $2", eventID, timetableID)
	if err != nil {
		return fmt.Errorf("delete timetable event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timetable event: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// ReplaceInstanceEvents atomically swaps the rows of one template
// instance for a fresh expansion. Re-applying a template replaces its
// previous events instead of merging with them.
func (r *TimetableRepository) ReplaceInstanceEvents(ctx context.Context, timetableID, instanceID string, events []models.TimetableEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin instance replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM timetable_events WHERE timetable_id = $1 AND template_instance_id = $2",
		timetableID, instanceID); err != nil {
		return fmt.Errorf("clear instance events: %w", err)
	}

	const query = `INSERT INTO timetable_events (id, timetable_id, event_name, event_time, sound_id, template_instance_id, is_template_base, created_at)
VALUES (:id, :timetable_id, :event_name, :event_time, :sound_id, :template_instance_id, :is_template_base, :created_at)`
	now := time.Now().UTC()
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		if events[i].CreatedAt.IsZero() {
			events[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, events[i]); err != nil {
			return fmt.Errorf("insert instance event: %w", err)
		}
	}
	return tx.Commit()
}
