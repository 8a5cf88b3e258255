package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/middleware"
	"github.com/lible-app/lible-api/internal/models"
	"github.com/lible-app/lible-api/internal/service"
)

type timetableReaderStub struct {
	timetables []models.Timetable
}

func (s *timetableReaderStub) ListByOwner(ctx context.Context, userID string) ([]models.Timetable, error) {
	return s.timetables, nil
}

type holidayReaderStub struct{}

func (s *holidayReaderStub) List(ctx context.Context) ([]models.Holiday, error) {
	return nil, nil
}

type soundReaderStub struct {
	sounds []models.Sound
}

func (s *soundReaderStub) List(ctx context.Context) ([]models.Sound, error) {
	return s.sounds, nil
}

func newScheduleHandlerFixture() *ScheduleHandler {
	from, _ := models.ParseDate("2024-01-01")
	timetables := &timetableReaderStub{timetables: []models.Timetable{{
		ID:        "tt-1",
		UserID:    "u-1",
		Name:      "Põhiplaan",
		ValidFrom: from,
		Weekdays:  127,
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Events: []models.TimetableEvent{{
			ID:          "ev-1",
			TimetableID: "tt-1",
			EventName:   "Alghelin",
			EventTime:   models.TimeOfDay(8 * 60),
			SoundID:     "snd-1",
		}},
	}}}
	sounds := &soundReaderStub{sounds: []models.Sound{{ID: "snd-1", Name: "Kell", Filename: "snd-1.mp3"}}}
	svc := service.NewScheduleService(timetables, &holidayReaderStub{}, sounds, nil, nil, time.Minute, zap.NewNop())
	return NewScheduleHandler(svc)
}

func TestScheduleHandlerResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule?date=2024-03-13", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Username: "kooli"})

	h.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Date    string `json:"date"`
			Holiday bool   `json:"holiday"`
			Firings []struct {
				Time      string `json:"time"`
				EventName string `json:"event_name"`
			} `json:"firings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "2024-03-13", envelope.Data.Date)
	assert.False(t, envelope.Data.Holiday)
	require.Len(t, envelope.Data.Firings, 1)
	assert.Equal(t, "08:00", envelope.Data.Firings[0].Time)
	assert.Equal(t, "Alghelin", envelope.Data.Firings[0].EventName)
}

func TestScheduleHandlerResolveRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule?date=13.03.2024", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1"})

	h.Resolve(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerResolveRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule?date=2024-03-13", nil)
	c.Request = req

	h.Resolve(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/export?date=2024-03-13&format=csv", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1"})

	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Alghelin")
}
