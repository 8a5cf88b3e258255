package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/models"
	"github.com/lible-app/lible-api/internal/schedule"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
	"github.com/lible-app/lible-api/pkg/export"
)

type scheduleTimetableReader interface {
	ListByOwner(ctx context.Context, userID string) ([]models.Timetable, error)
}

type scheduleHolidayReader interface {
	List(ctx context.Context) ([]models.Holiday, error)
}

type scheduleSoundReader interface {
	List(ctx context.Context) ([]models.Sound, error)
}

// ScheduleService resolves firing plans. It loads a snapshot of the
// owner's timetables plus the global holidays and sounds, runs the
// resolver and caches the serialized plan per owner and date.
type ScheduleService struct {
	timetables scheduleTimetableReader
	holidays   scheduleHolidayReader
	sounds     scheduleSoundReader
	cache      *CacheService
	metrics    *MetricsService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewScheduleService creates a schedule service instance.
func NewScheduleService(timetables scheduleTimetableReader, holidays scheduleHolidayReader, sounds scheduleSoundReader, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		timetables: timetables,
		holidays:   holidays,
		sounds:     sounds,
		cache:      cache,
		metrics:    metrics,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Resolve computes the firing plan for one owner and date.
func (s *ScheduleService) Resolve(ctx context.Context, ownerID string, date models.Date) (*schedule.Plan, error) {
	key := planCacheKey(ownerID, date)
	if s.cache != nil {
		var cached schedule.Plan
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	snap, err := s.loadSnapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	plan, err := schedule.Resolve(*snap, date)
	if err != nil {
		if errors.Is(err, schedule.ErrPrecondition) {
			return nil, appErrors.Wrap(err, appErrors.ErrPrecondition.Code, appErrors.ErrPrecondition.Status, appErrors.ErrPrecondition.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve schedule")
	}
	if s.metrics != nil {
		s.metrics.ObserveResolution(time.Since(start), len(plan.Firings))
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, plan, s.cacheTTL)
	}
	return plan, nil
}

// Export renders the resolved plan for the given format.
func (s *ScheduleService) Export(ctx context.Context, ownerID string, date models.Date, format string) ([]byte, string, error) {
	plan, err := s.Resolve(ctx, ownerID, date)
	if err != nil {
		return nil, "", err
	}

	dataset := planDataset(plan)
	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Bell plan %s", plan.Date)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *ScheduleService) loadSnapshot(ctx context.Context, ownerID string) (*schedule.Snapshot, error) {
	timetables, err := s.timetables.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetables")
	}
	holidays, err := s.holidays.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	sounds, err := s.sounds.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sounds")
	}

	soundIndex := make(map[string]models.Sound, len(sounds))
	for _, sound := range sounds {
		soundIndex[sound.ID] = sound
	}
	return &schedule.Snapshot{
		Timetables: timetables,
		Holidays:   holidays,
		Sounds:     soundIndex,
	}, nil
}

func planCacheKey(ownerID string, date models.Date) string {
	return fmt.Sprintf("schedule:%s:%s", ownerID, date)
}

func planDataset(plan *schedule.Plan) export.Dataset {
	headers := []string{"Time", "Event", "Sound", "Timetable"}
	rows := make([]map[string]string, 0, len(plan.Firings))
	for _, f := range plan.Firings {
		rows = append(rows, map[string]string{
			"Time":      f.Time.String(),
			"Event":     f.EventName,
			"Sound":     f.SoundFilename,
			"Timetable": f.TimetableName,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
