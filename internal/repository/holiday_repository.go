package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lible-app/lible-api/internal/models"
)

// HolidayRepository persists system-wide holiday intervals.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns all holidays ordered by start date.
func (r *HolidayRepository) List(ctx context.Context) ([]models.Holiday, error) {
	const query = `SELECT id, name, valid_from, valid_until, created_at FROM holidays ORDER BY valid_from ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// GetByID fetches one holiday.
func (r *HolidayRepository) GetByID(ctx context.Context, id string) (*models.Holiday, error) {
	const query = `SELECT id, name, valid_from, valid_until, created_at FROM holidays WHERE id = $1`
	var h models.Holiday
	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a holiday.
func (r *HolidayRepository) Create(ctx context.Context, h *models.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO holidays (id, name, valid_from, valid_until, created_at)
VALUES (:id, :name, :valid_from, :valid_until, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, h); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Update modifies a holiday's name and interval.
func (r *HolidayRepository) Update(ctx context.Context, h *models.Holiday) error {
	const query = `UPDATE holidays SET name = :name, valid_from = :valid_from, valid_until = :valid_until WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, h)
	if err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
