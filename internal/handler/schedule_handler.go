package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lible-app/lible-api/internal/middleware"
	"github.com/lible-app/lible-api/internal/models"
	"github.com/lible-app/lible-api/internal/service"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
	"github.com/lible-app/lible-api/pkg/response"
)

// ScheduleHandler exposes the firing plan resolution endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Resolve godoc
// @Summary Resolve the firing plan for one date
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	date, err := parseDateQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	plan, err := h.service.Resolve(c.Request.Context(), claims.UserID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "firings", len(plan.Firings))
	response.JSON(c, http.StatusOK, plan, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the firing plan for one date
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	date, err := parseDateQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.Export(c.Request.Context(), claims.UserID, date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "bell-plan-" + date.String() + "." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

func parseDateQuery(c *gin.Context) (models.Date, error) {
	raw := c.Query("date")
	if raw == "" {
		return models.Date{}, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required")
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	return date, nil
}
