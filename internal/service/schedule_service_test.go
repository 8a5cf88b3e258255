package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/models"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
)

type mockTimetableReader struct {
	timetables []models.Timetable
	err        error
}

func (m *mockTimetableReader) ListByOwner(ctx context.Context, userID string) ([]models.Timetable, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.timetables, nil
}

type mockHolidayReader struct {
	holidays []models.Holiday
}

func (m *mockHolidayReader) List(ctx context.Context) ([]models.Holiday, error) {
	return m.holidays, nil
}

type mockSoundReader struct {
	sounds []models.Sound
}

func (m *mockSoundReader) List(ctx context.Context) ([]models.Sound, error) {
	return m.sounds, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = nil
	return nil
}

func weekTimetable(id, name, from string, weekdays int, events ...models.TimetableEvent) models.Timetable {
	fromDate, _ := models.ParseDate(from)
	return models.Timetable{
		ID:        id,
		UserID:    "owner-1",
		Name:      name,
		ValidFrom: fromDate,
		Weekdays:  weekdays,
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Events:    events,
	}
}

func newTestScheduleService(tt *mockTimetableReader, hol *mockHolidayReader, snd *mockSoundReader, cache *CacheService) *ScheduleService {
	return NewScheduleService(tt, hol, snd, cache, nil, time.Minute, zap.NewNop())
}

const everyDay = 127

func TestScheduleServiceResolve(t *testing.T) {
	tt := &mockTimetableReader{timetables: []models.Timetable{
		weekTimetable("tt-1", "Põhiplaan", "2024-01-01", everyDay,
			models.TimetableEvent{ID: "ev-1", TimetableID: "tt-1", EventName: "Alghelin", EventTime: models.TimeOfDay(8 * 60), SoundID: "snd-1"},
		),
	}}
	snd := &mockSoundReader{sounds: []models.Sound{{ID: "snd-1", Name: "Kell", Filename: "snd-1.mp3"}}}
	svc := newTestScheduleService(tt, &mockHolidayReader{}, snd, nil)

	date, _ := models.ParseDate("2024-03-13")
	plan, err := svc.Resolve(context.Background(), "owner-1", date)
	require.NoError(t, err)
	assert.False(t, plan.Holiday)
	require.Len(t, plan.Firings, 1)
	assert.Equal(t, "Alghelin", plan.Firings[0].EventName)
	assert.Equal(t, "snd-1.mp3", plan.Firings[0].SoundFilename)
	assert.Empty(t, plan.Warnings)
}

func TestScheduleServiceResolveHoliday(t *testing.T) {
	from, _ := models.ParseDate("2024-03-11")
	until, _ := models.ParseDate("2024-03-15")
	tt := &mockTimetableReader{timetables: []models.Timetable{
		weekTimetable("tt-1", "Põhiplaan", "2024-01-01", everyDay,
			models.TimetableEvent{ID: "ev-1", TimetableID: "tt-1", EventName: "Alghelin", EventTime: models.TimeOfDay(8 * 60), SoundID: "snd-1"},
		),
	}}
	hol := &mockHolidayReader{holidays: []models.Holiday{{ID: "hol-1", Name: "Vaheaeg", ValidFrom: from, ValidUntil: until}}}
	svc := newTestScheduleService(tt, hol, &mockSoundReader{}, nil)

	date, _ := models.ParseDate("2024-03-13")
	plan, err := svc.Resolve(context.Background(), "owner-1", date)
	require.NoError(t, err)
	assert.True(t, plan.Holiday)
	assert.Empty(t, plan.Firings)
}

func TestScheduleServiceResolveUsesCache(t *testing.T) {
	tt := &mockTimetableReader{timetables: []models.Timetable{
		weekTimetable("tt-1", "Põhiplaan", "2024-01-01", everyDay,
			models.TimetableEvent{ID: "ev-1", TimetableID: "tt-1", EventName: "Alghelin", EventTime: models.TimeOfDay(8 * 60), SoundID: "snd-1"},
		),
	}}
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := newTestScheduleService(tt, &mockHolidayReader{}, &mockSoundReader{}, cache)

	date, _ := models.ParseDate("2024-03-13")
	first, err := svc.Resolve(context.Background(), "owner-1", date)
	require.NoError(t, err)
	require.Equal(t, 1, repo.sets)

	tt.timetables = nil // a cache hit must not reload the snapshot
	second, err := svc.Resolve(context.Background(), "owner-1", date)
	require.NoError(t, err)
	assert.Equal(t, first.Firings, second.Firings)
	assert.Equal(t, 1, repo.sets)
}

func TestScheduleServiceResolveMissingSoundWarns(t *testing.T) {
	tt := &mockTimetableReader{timetables: []models.Timetable{
		weekTimetable("tt-1", "Põhiplaan", "2024-01-01", everyDay,
			models.TimetableEvent{ID: "ev-1", TimetableID: "tt-1", EventName: "Alghelin", EventTime: models.TimeOfDay(8 * 60), SoundID: "snd-gone"},
		),
	}}
	svc := newTestScheduleService(tt, &mockHolidayReader{}, &mockSoundReader{}, nil)

	date, _ := models.ParseDate("2024-03-13")
	plan, err := svc.Resolve(context.Background(), "owner-1", date)
	require.NoError(t, err)
	require.Len(t, plan.Firings, 1)
	assert.Empty(t, plan.Firings[0].SoundFilename)
	require.Len(t, plan.Warnings, 1)
}

func TestScheduleServiceExportCSV(t *testing.T) {
	tt := &mockTimetableReader{timetables: []models.Timetable{
		weekTimetable("tt-1", "Põhiplaan", "2024-01-01", everyDay,
			models.TimetableEvent{ID: "ev-1", TimetableID: "tt-1", EventName: "Alghelin", EventTime: models.TimeOfDay(8 * 60), SoundID: "snd-1"},
		),
	}}
	snd := &mockSoundReader{sounds: []models.Sound{{ID: "snd-1", Name: "Kell", Filename: "snd-1.mp3"}}}
	svc := newTestScheduleService(tt, &mockHolidayReader{}, snd, nil)

	date, _ := models.ParseDate("2024-03-13")
	payload, contentType, err := svc.Export(context.Background(), "owner-1", date, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Alghelin")
	assert.Contains(t, string(payload), "08:00")
}

func TestScheduleServiceExportRejectsUnknownFormat(t *testing.T) {
	svc := newTestScheduleService(&mockTimetableReader{}, &mockHolidayReader{}, &mockSoundReader{}, nil)

	date, _ := models.ParseDate("2024-03-13")
	_, _, err := svc.Export(context.Background(), "owner-1", date, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
