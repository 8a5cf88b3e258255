package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/models"
	"github.com/lible-app/lible-api/internal/repository"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context) ([]models.EventTemplate, error)
	GetByID(ctx context.Context, id string) (*models.EventTemplate, error)
	Create(ctx context.Context, tpl *models.EventTemplate) error
	Update(ctx context.Context, tpl *models.EventTemplate) error
	Delete(ctx context.Context, id string) error
}

// TemplateItemRequest is one entry of a template payload.
type TemplateItemRequest struct {
	OffsetMinutes int    `json:"offset_minutes" validate:"offsetrange"`
	EventName     string `json:"event_name" validate:"required,max=120"`
	SoundID       string `json:"sound_id" validate:"required"`
}

// TemplateRequest creates or replaces a template with its items.
type TemplateRequest struct {
	Name        string                `json:"name" validate:"required,max=120"`
	Description string                `json:"description" validate:"max=500"`
	Items       []TemplateItemRequest `json:"items" validate:"required,min=1,dive"`
}

// TemplateService orchestrates event template workflows.
type TemplateService struct {
	repo      templateRepository
	sounds    soundReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService creates a template service instance.
func NewTemplateService(repo templateRepository, sounds soundReader, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, sounds: sounds, validator: validate, logger: logger}
}

// List returns all templates with their items.
func (s *TemplateService) List(ctx context.Context) ([]models.EventTemplate, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Get returns one template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.EventTemplate, error) {
	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return tpl, nil
}

// Create adds a new template with its items.
func (s *TemplateService) Create(ctx context.Context, req TemplateRequest) (*models.EventTemplate, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	tpl := &models.EventTemplate{
		Name:        req.Name,
		Description: req.Description,
		Items:       itemsFromRequest(req.Items),
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "template name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return tpl, nil
}

// Update replaces a template's metadata and items. Timetable events
// already materialised from this template are untouched.
func (s *TemplateService) Update(ctx context.Context, id string, req TemplateRequest) (*models.EventTemplate, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl.Name = req.Name
	tpl.Description = req.Description
	tpl.Items = itemsFromRequest(req.Items)

	if err := s.repo.Update(ctx, tpl); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "template name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return tpl, nil
}

// Delete removes a template and its items.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

func (s *TemplateService) validate(ctx context.Context, req TemplateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "offsetrange" {
					return appErrors.Clone(appErrors.ErrValidation, "item offsets must be between -120 and 120 minutes")
				}
			}
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	if s.sounds == nil {
		return nil
	}
	for _, item := range req.Items {
		if _, err := s.sounds.GetByID(ctx, item.SoundID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "item references a sound that does not exist")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sound")
		}
	}
	return nil
}

func itemsFromRequest(items []TemplateItemRequest) []models.EventTemplateItem {
	out := make([]models.EventTemplateItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.EventTemplateItem{
			OffsetMinutes: item.OffsetMinutes,
			EventName:     item.EventName,
			SoundID:       item.SoundID,
		})
	}
	return out
}
