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

type holidayRepository interface {
	List(ctx context.Context) ([]models.Holiday, error)
	GetByID(ctx context.Context, id string) (*models.Holiday, error)
	Create(ctx context.Context, h *models.Holiday) error
	Update(ctx context.Context, h *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// HolidayRequest creates or updates a holiday interval. Both bounds
// are inclusive; overlapping holidays are allowed.
type HolidayRequest struct {
	Name       string      `json:"name" validate:"required,max=120"`
	ValidFrom  models.Date `json:"valid_from" validate:"required"`
	ValidUntil models.Date `json:"valid_until" validate:"required"`
}

// HolidayService orchestrates holiday workflows. Holidays are
// system-wide: every user's plan goes silent on a holiday.
type HolidayService struct {
	repo      holidayRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService creates a holiday service instance.
func NewHolidayService(repo holidayRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all holidays ordered by start date.
func (s *HolidayService) List(ctx context.Context) ([]models.Holiday, error) {
	holidays, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, nil
}

// Create adds a holiday.
func (s *HolidayService) Create(ctx context.Context, req HolidayRequest) (*models.Holiday, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	h := &models.Holiday{
		Name:       req.Name,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}

	s.invalidateAll(ctx)
	return h, nil
}

// Update modifies a holiday.
func (s *HolidayService) Update(ctx context.Context, id string, req HolidayRequest) (*models.Holiday, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}

	h.Name = req.Name
	h.ValidFrom = req.ValidFrom
	h.ValidUntil = req.ValidUntil

	if err := s.repo.Update(ctx, h); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}

	s.invalidateAll(ctx)
	return h, nil
}

// Delete removes a holiday.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	s.invalidateAll(ctx)
	return nil
}

func (s *HolidayService) validate(req HolidayRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	if req.ValidUntil.Before(req.ValidFrom) {
		return appErrors.Clone(appErrors.ErrValidation, "valid_until must not precede valid_from")
	}
	return nil
}

// Holidays affect every owner, so the whole plan cache goes.
func (s *HolidayService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, "schedule:*")
}
