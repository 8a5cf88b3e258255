package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lible-app/lible-api/internal/models"
)

// TemplateRepository persists event templates and their items.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs a template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns all templates with items, ordered by name.
func (r *TemplateRepository) List(ctx context.Context) ([]models.EventTemplate, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM event_templates ORDER BY name ASC`
	var templates []models.EventTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(templates) == 0 {
		return templates, nil
	}

	ids := make([]string, len(templates))
	index := make(map[string]int, len(templates))
	for i, tpl := range templates {
		ids[i] = tpl.ID
		index[tpl.ID] = i
		templates[i].Items = []models.EventTemplateItem{}
	}

	const itemsQuery = `SELECT id, template_id, offset_minutes, event_name, sound_id, position
FROM event_template_items WHERE template_id = ANY($1) ORDER BY position ASC`
	var items []models.EventTemplateItem
	if err := r.db.SelectContext(ctx, &items, itemsQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}
	for _, item := range items {
		i := index[item.TemplateID]
		templates[i].Items = append(templates[i].Items, item)
	}
	return templates, nil
}

// GetByID fetches one template with its items.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.EventTemplate, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM event_templates WHERE id = $1`
	var tpl models.EventTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, err
	}

	const itemsQuery = `SELECT id, template_id, offset_minutes, event_name, sound_id, position
FROM event_template_items WHERE template_id = $1 ORDER BY position ASC`
	if err := r.db.SelectContext(ctx, &tpl.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}
	return &tpl, nil
}

// Create inserts a template together with its items.
func (r *TemplateRepository) Create(ctx context.Context, tpl *models.EventTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO event_templates (id, name, description, created_at, updated_at)
VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	if err := insertItems(ctx, tx, tpl); err != nil {
		return err
	}
	return tx.Commit()
}

// Update modifies a template's name and description and replaces its
// items wholesale in one transaction.
func (r *TemplateRepository) Update(ctx context.Context, tpl *models.EventTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE event_templates SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	result, err := tx.NamedExecContext(ctx, query, tpl)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_template_items WHERE template_id = $1", tpl.ID); err != nil {
		return fmt.Errorf("clear template items: %w", err)
	}
	if err := insertItems(ctx, tx, tpl); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a template and its items atomically.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_template_items WHERE template_id = $1", id); err != nil {
		return fmt.Errorf("delete template items: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM event_templates WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return tx.Commit()
}

func insertItems(ctx context.Context, tx *sqlx.Tx, tpl *models.EventTemplate) error {
	const query = `INSERT INTO event_template_items (id, template_id, offset_minutes, event_name, sound_id, position)
VALUES (:id, :template_id, :offset_minutes, :event_name, :sound_id, :position)`
	for i := range tpl.Items {
		if tpl.Items[i].ID == "" {
			tpl.Items[i].ID = uuid.NewString()
		}
		tpl.Items[i].TemplateID = tpl.ID
		tpl.Items[i].Position = i
		if _, err := tx.NamedExecContext(ctx, query, tpl.Items[i]); err != nil {
			return fmt.Errorf("insert template item: %w", err)
		}
	}
	return nil
}
