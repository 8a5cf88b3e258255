package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lible-app/lible-api/internal/models"
)

// SoundRepository persists bell sound metadata.
type SoundRepository struct {
	db *sqlx.DB
}

// NewSoundRepository constructs a sound repository.
func NewSoundRepository(db *sqlx.DB) *SoundRepository {
	return &SoundRepository{db: db}
}

// List returns all sounds ordered by name.
func (r *SoundRepository) List(ctx context.Context) ([]models.Sound, error) {
	const query = `SELECT id, name, filename, created_at, updated_at FROM sounds ORDER BY name ASC`
	var sounds []models.Sound
	if err := r.db.SelectContext(ctx, &sounds, query); err != nil {
		return nil, fmt.Errorf("list sounds: %w", err)
	}
	return sounds, nil
}

// GetByID fetches one sound.
func (r *SoundRepository) GetByID(ctx context.Context, id string) (*models.Sound, error) {
	const query = `SELECT id, name, filename, created_at, updated_at FROM sounds WHERE id = $1`
	var s models.Sound
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a sound.
func (r *SoundRepository) Create(ctx context.Context, s *models.Sound) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	const query = `INSERT INTO sounds (id, name, filename, created_at, updated_at)
VALUES (:id, :name, :filename, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create sound: %w", err)
	}
	return nil
}

// UpdateName renames a sound. The stored filename never changes after
// upload.
func (r *SoundRepository) UpdateName(ctx context.Context, id, name string, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, "UPDATE sounds SET name = $1, updated_at = $2 WHERE id = $3", name, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update sound: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sound: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete removes a sound record.
func (r *SoundRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sounds WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete sound: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sound: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
