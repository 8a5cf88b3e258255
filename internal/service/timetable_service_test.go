package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/models"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
)

type mockTimetableRepo struct {
	timetable *models.Timetable
	getErr    error

	created          *models.Timetable
	replacedInstance string
	replacedEvents   []models.TimetableEvent
}

func (m *mockTimetableRepo) ListByOwner(ctx context.Context, userID string) ([]models.Timetable, error) {
	if m.timetable == nil {
		return nil, nil
	}
	return []models.Timetable{*m.timetable}, nil
}

func (m *mockTimetableRepo) GetByID(ctx context.Context, id, userID string) (*models.Timetable, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.timetable, nil
}

func (m *mockTimetableRepo) Create(ctx context.Context, tt *models.Timetable) error {
	m.created = tt
	return nil
}

func (m *mockTimetableRepo) Update(ctx context.Context, tt *models.Timetable) error { return nil }

func (m *mockTimetableRepo) Delete(ctx context.Context, id, userID string) error { return nil }

func (m *mockTimetableRepo) ListEvents(ctx context.Context, timetableID string) ([]models.TimetableEvent, error) {
	return nil, nil
}

func (m *mockTimetableRepo) GetEvent(ctx context.Context, eventID, timetableID string) (*models.TimetableEvent, error) {
	return nil, sql.ErrNoRows
}

func (m *mockTimetableRepo) CreateEvent(ctx context.Context, ev *models.TimetableEvent) error {
	return nil
}

func (m *mockTimetableRepo) UpdateEvent(ctx context.Context, ev *models.TimetableEvent) error {
	return nil
}

func (m *mockTimetableRepo) DeleteEvent(ctx context.Context, eventID, timetableID string) error {
	return nil
}

func (m *mockTimetableRepo) ReplaceInstanceEvents(ctx context.Context, timetableID, instanceID string, events []models.TimetableEvent) error {
	m.replacedInstance = instanceID
	m.replacedEvents = events
	return nil
}

type mockTemplateReader struct {
	template *models.EventTemplate
	err      error
}

func (m *mockTemplateReader) GetByID(ctx context.Context, id string) (*models.EventTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.template, nil
}

type mockSoundGetter struct {
	missing bool
}

func (m *mockSoundGetter) GetByID(ctx context.Context, id string) (*models.Sound, error) {
	if m.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Sound{ID: id, Name: "Kell", Filename: id + ".mp3"}, nil
}

func ownedTimetable() *models.Timetable {
	from, _ := models.ParseDate("2024-01-01")
	return &models.Timetable{
		ID:        "tt-1",
		UserID:    "owner-1",
		Name:      "Põhiplaan",
		ValidFrom: from,
		Weekdays:  0b0011111,
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestTimetableService(repo *mockTimetableRepo, templates *mockTemplateReader, sounds *mockSoundGetter) *TimetableService {
	return NewTimetableService(repo, templates, sounds, nil, NewValidator(), zap.NewNop())
}

func TestTimetableServiceCreateRejectsInvalidMask(t *testing.T) {
	svc := newTestTimetableService(&mockTimetableRepo{}, &mockTemplateReader{}, &mockSoundGetter{})
	from, _ := models.ParseDate("2024-01-01")

	for _, mask := range []int{0, 128, -1} {
		_, err := svc.Create(context.Background(), "owner-1", CreateTimetableRequest{
			Name:      "Plaan",
			ValidFrom: from,
			Weekdays:  mask,
		})
		require.Error(t, err, "mask %d", mask)
		assert.Equal(t, appErrors.ErrInvalidWeekdayMask.Code, appErrors.FromError(err).Code)
	}
}

func TestTimetableServiceCreateRejectsInvertedWindow(t *testing.T) {
	svc := newTestTimetableService(&mockTimetableRepo{}, &mockTemplateReader{}, &mockSoundGetter{})
	from, _ := models.ParseDate("2024-06-01")
	until, _ := models.ParseDate("2024-05-01")

	_, err := svc.Create(context.Background(), "owner-1", CreateTimetableRequest{
		Name:       "Plaan",
		ValidFrom:  from,
		ValidUntil: &until,
		Weekdays:   0b0011111,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceCreateEventRejectsMissingSound(t *testing.T) {
	repo := &mockTimetableRepo{timetable: ownedTimetable()}
	svc := newTestTimetableService(repo, &mockTemplateReader{}, &mockSoundGetter{missing: true})

	_, err := svc.CreateEvent(context.Background(), "tt-1", "owner-1", EventRequest{
		EventName: "Alghelin",
		EventTime: models.TimeOfDay(8 * 60),
		SoundID:   "snd-gone",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceApplyTemplate(t *testing.T) {
	repo := &mockTimetableRepo{timetable: ownedTimetable()}
	templates := &mockTemplateReader{template: &models.EventTemplate{
		ID:   "tpl-1",
		Name: "Tunniplokk",
		Items: []models.EventTemplateItem{
			{OffsetMinutes: -10, EventName: "Eelhelin", SoundID: "snd-1"},
			{OffsetMinutes: 0, EventName: "Alghelin", SoundID: "snd-2"},
			{OffsetMinutes: 15, EventName: "Lõpuhelin", SoundID: "snd-3"},
		},
	}}
	svc := newTestTimetableService(repo, templates, &mockSoundGetter{})

	events, err := svc.ApplyTemplate(context.Background(), "tt-1", "owner-1", ApplyTemplateRequest{
		TemplateID: "tpl-1",
		AnchorTime: models.TimeOfDay(9 * 60),
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "08:50", events[0].EventTime.String())
	assert.Equal(t, "09:00", events[1].EventTime.String())
	assert.Equal(t, "09:15", events[2].EventTime.String())
	assert.True(t, events[1].IsTemplateBase)

	assert.Equal(t, "tpl:tpl-1", repo.replacedInstance)
	require.Len(t, repo.replacedEvents, 3)
	for _, ev := range repo.replacedEvents {
		require.NotNil(t, ev.TemplateInstanceID)
		assert.Equal(t, "tpl:tpl-1", *ev.TemplateInstanceID)
	}
}

func TestTimetableServiceApplyTemplateRejectsCrossMidnight(t *testing.T) {
	repo := &mockTimetableRepo{timetable: ownedTimetable()}
	templates := &mockTemplateReader{template: &models.EventTemplate{
		ID:    "tpl-1",
		Name:  "Tunniplokk",
		Items: []models.EventTemplateItem{{OffsetMinutes: 30, EventName: "Lõpuhelin", SoundID: "snd-1"}},
	}}
	svc := newTestTimetableService(repo, templates, &mockSoundGetter{})

	_, err := svc.ApplyTemplate(context.Background(), "tt-1", "owner-1", ApplyTemplateRequest{
		TemplateID: "tpl-1",
		AnchorTime: models.TimeOfDay(23*60 + 50),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTemplateOutOfRange.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.replacedInstance)
}

func TestTimetableServiceApplyTemplateUnknownTemplate(t *testing.T) {
	repo := &mockTimetableRepo{timetable: ownedTimetable()}
	svc := newTestTimetableService(repo, &mockTemplateReader{err: sql.ErrNoRows}, &mockSoundGetter{})

	_, err := svc.ApplyTemplate(context.Background(), "tt-1", "owner-1", ApplyTemplateRequest{
		TemplateID: "tpl-404",
		AnchorTime: models.TimeOfDay(9 * 60),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
