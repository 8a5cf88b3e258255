package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/models"
	"github.com/lible-app/lible-api/internal/repository"
	"github.com/lible-app/lible-api/internal/schedule"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
)

type timetableRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]models.Timetable, error)
	GetByID(ctx context.Context, id, userID string) (*models.Timetable, error)
	Create(ctx context.Context, tt *models.Timetable) error
	Update(ctx context.Context, tt *models.Timetable) error
	Delete(ctx context.Context, id, userID string) error
	ListEvents(ctx context.Context, timetableID string) ([]models.TimetableEvent, error)
	GetEvent(ctx context.Context, eventID, timetableID string) (*models.TimetableEvent, error)
	CreateEvent(ctx context.Context, ev *models.TimetableEvent) error
	UpdateEvent(ctx context.Context, ev *models.TimetableEvent) error
	DeleteEvent(ctx context.Context, eventID, timetableID string) error
	ReplaceInstanceEvents(ctx context.Context, timetableID, instanceID string, events []models.TimetableEvent) error
}

type timetableTemplateReader interface {
	GetByID(ctx context.Context, id string) (*models.EventTemplate, error)
}

type soundReader interface {
	GetByID(ctx context.Context, id string) (*models.Sound, error)
}

// CreateTimetableRequest describes the payload for creating a timetable.
type CreateTimetableRequest struct {
	Name       string       `json:"name" validate:"required,max=120"`
	ValidFrom  models.Date  `json:"valid_from" validate:"required"`
	ValidUntil *models.Date `json:"valid_until"`
	Weekdays   int          `json:"weekdays" validate:"weekdaymask"`
}

// UpdateTimetableRequest updates mutable fields on a timetable.
type UpdateTimetableRequest struct {
	Name       string       `json:"name" validate:"required,max=120"`
	ValidFrom  models.Date  `json:"valid_from" validate:"required"`
	ValidUntil *models.Date `json:"valid_until"`
	Weekdays   int          `json:"weekdays" validate:"weekdaymask"`
}

// EventRequest creates or updates a single timetable event.
type EventRequest struct {
	EventName string           `json:"event_name" validate:"required,max=120"`
	EventTime models.TimeOfDay `json:"event_time"`
	SoundID   string           `json:"sound_id" validate:"required"`
}

// ApplyTemplateRequest materialises a template into a timetable at an
// anchor time.
type ApplyTemplateRequest struct {
	TemplateID string           `json:"template_id" validate:"required"`
	AnchorTime models.TimeOfDay `json:"anchor_time"`
}

// TimetableService orchestrates timetable and event workflows. Every
// operation is scoped to the owning user.
type TimetableService struct {
	repo      timetableRepository
	templates timetableTemplateReader
	sounds    soundReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService creates a timetable service instance.
func NewTimetableService(repo timetableRepository, templates timetableTemplateReader, sounds soundReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, templates: templates, sounds: sounds, cache: cache, validator: validate, logger: logger}
}

// List returns all timetables of the owner with their events.
func (s *TimetableService) List(ctx context.Context, ownerID string) ([]models.Timetable, error) {
	timetables, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Get returns one timetable by ID.
func (s *TimetableService) Get(ctx context.Context, id, ownerID string) (*models.Timetable, error) {
	tt, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return tt, nil
}

// Create adds a new timetable after window and mask validation.
func (s *TimetableService) Create(ctx context.Context, ownerID string, req CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.mapValidation(err)
	}
	if err := validateWindow(req.ValidFrom, req.ValidUntil); err != nil {
		return nil, err
	}

	tt := &models.Timetable{
		UserID:     ownerID,
		Name:       req.Name,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		Weekdays:   req.Weekdays,
	}
	if err := s.repo.Create(ctx, tt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "timetable name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}

	s.invalidatePlans(ctx, ownerID)
	return tt, nil
}

// Update modifies a timetable's name, validity window and weekday mask.
func (s *TimetableService) Update(ctx context.Context, id, ownerID string, req UpdateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.mapValidation(err)
	}
	if err := validateWindow(req.ValidFrom, req.ValidUntil); err != nil {
		return nil, err
	}

	tt, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	tt.Name = req.Name
	tt.ValidFrom = req.ValidFrom
	tt.ValidUntil = req.ValidUntil
	tt.Weekdays = req.Weekdays

	if err := s.repo.Update(ctx, tt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "timetable name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
	}

	s.invalidatePlans(ctx, ownerID)
	return tt, nil
}

// Delete removes a timetable together with its events.
func (s *TimetableService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.invalidatePlans(ctx, ownerID)
	return nil
}

// ListEvents returns the timetable's events ordered by time.
func (s *TimetableService) ListEvents(ctx context.Context, timetableID, ownerID string) ([]models.TimetableEvent, error) {
	if _, err := s.Get(ctx, timetableID, ownerID); err != nil {
		return nil, err
	}
	events, err := s.repo.ListEvents(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// CreateEvent adds one event to a timetable.
func (s *TimetableService) CreateEvent(ctx context.Context, timetableID, ownerID string, req EventRequest) (*models.TimetableEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.mapValidation(err)
	}
	if !req.EventTime.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event_time must be within 00:00..23:59")
	}
	if _, err := s.Get(ctx, timetableID, ownerID); err != nil {
		return nil, err
	}
	if err := s.requireSound(ctx, req.SoundID); err != nil {
		return nil, err
	}

	ev := &models.TimetableEvent{
		TimetableID: timetableID,
		EventName:   req.EventName,
		EventTime:   req.EventTime,
		SoundID:     req.SoundID,
	}
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.invalidatePlans(ctx, ownerID)
	return ev, nil
}

// UpdateEvent modifies an event's name, time and sound. Editing an
// event that came from a template detaches it from its instance.
func (s *TimetableService) UpdateEvent(ctx context.Context, eventID, timetableID, ownerID string, req EventRequest) (*models.TimetableEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.mapValidation(err)
	}
	if !req.EventTime.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event_time must be within 00:00..23:59")
	}
	if _, err := s.Get(ctx, timetableID, ownerID); err != nil {
		return nil, err
	}

	ev, err := s.repo.GetEvent(ctx, eventID, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.requireSound(ctx, req.SoundID); err != nil {
		return nil, err
	}

	ev.EventName = req.EventName
	ev.EventTime = req.EventTime
	ev.SoundID = req.SoundID

	if err := s.repo.UpdateEvent(ctx, ev); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.invalidatePlans(ctx, ownerID)
	return ev, nil
}

// DeleteEvent removes one event.
func (s *TimetableService) DeleteEvent(ctx context.Context, eventID, timetableID, ownerID string) error {
	if _, err := s.Get(ctx, timetableID, ownerID); err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, eventID, timetableID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidatePlans(ctx, ownerID)
	return nil
}

// ApplyTemplate expands a template at the anchor time and writes the
// resulting events into the timetable. Events are materialised rows;
// later edits to the template never touch them. Re-applying the same
// template to the same timetable replaces the previous instance rows.
func (s *TimetableService) ApplyTemplate(ctx context.Context, timetableID, ownerID string, req ApplyTemplateRequest) ([]models.TimetableEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.mapValidation(err)
	}
	if _, err := s.Get(ctx, timetableID, ownerID); err != nil {
		return nil, err
	}

	tpl, err := s.templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	planned, err := schedule.ExpandTemplate(*tpl, req.AnchorTime)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrTemplateOutOfRange):
			return nil, appErrors.Wrap(err, appErrors.ErrTemplateOutOfRange.Code, appErrors.ErrTemplateOutOfRange.Status, appErrors.ErrTemplateOutOfRange.Message)
		case errors.Is(err, schedule.ErrOffsetOutOfRange):
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "template offset out of range")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand template")
		}
	}

	// One instance per template and timetable: the deterministic ID
	// makes re-application replace rather than accumulate.
	instanceID := "tpl:" + req.TemplateID
	events := make([]models.TimetableEvent, 0, len(planned))
	for _, p := range planned {
		events = append(events, models.TimetableEvent{
			ID:                 uuid.NewString(),
			TimetableID:        timetableID,
			EventName:          p.EventName,
			EventTime:          p.Time,
			SoundID:            p.SoundID,
			TemplateInstanceID: &instanceID,
			IsTemplateBase:     p.Time == req.AnchorTime,
		})
	}

	if err := s.repo.ReplaceInstanceEvents(ctx, timetableID, instanceID, events); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply template")
	}

	s.logger.Info("template applied",
		zap.String("timetable_id", timetableID),
		zap.String("template_id", req.TemplateID),
		zap.Int("events", len(events)))

	s.invalidatePlans(ctx, ownerID)
	return events, nil
}

func (s *TimetableService) requireSound(ctx context.Context, soundID string) error {
	if s.sounds == nil {
		return nil
	}
	if _, err := s.sounds.GetByID(ctx, soundID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "sound does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sound")
	}
	return nil
}

func (s *TimetableService) invalidatePlans(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, "schedule:"+ownerID+":*")
}

func (s *TimetableService) mapValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "weekdaymask" {
				return appErrors.Clone(appErrors.ErrInvalidWeekdayMask, "")
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
}

func validateWindow(from models.Date, until *models.Date) error {
	if until != nil && until.Before(from) {
		return appErrors.Clone(appErrors.ErrValidation, "valid_until must not precede valid_from")
	}
	return nil
}
