package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lible-app/lible-api/internal/service"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
	"github.com/lible-app/lible-api/pkg/response"
)

// SoundHandler exposes bell sound endpoints.
type SoundHandler struct {
	service *service.SoundService
}

// NewSoundHandler constructs a sound handler.
func NewSoundHandler(svc *service.SoundService) *SoundHandler {
	return &SoundHandler{service: svc}
}

// List godoc
// @Summary List sounds
// @Tags Sounds
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /sounds [get]
func (h *SoundHandler) List(c *gin.Context) {
	sounds, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sounds, nil)
}

// Upload godoc
// @Summary Upload a sound file
// @Tags Sounds
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string false "Display name (defaults to the file name)"
// @Param file formData file true "Audio file"
// @Success 201 {object} response.Envelope
// @Router /sounds [post]
func (h *SoundHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	sound, err := h.service.Upload(c.Request.Context(), c.PostForm("name"), header)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sound)
}

// Rename godoc
// @Summary Rename a sound
// @Tags Sounds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sound ID"
// @Param payload body service.RenameSoundRequest true "Rename payload"
// @Success 200 {object} response.Envelope
// @Router /sounds/{id} [put]
func (h *SoundHandler) Rename(c *gin.Context) {
	var req service.RenameSoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sound, err := h.service.Rename(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sound, nil)
}

// Delete godoc
// @Summary Delete a sound and its file
// @Tags Sounds
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sound ID"
// @Success 204
// @Router /sounds/{id} [delete]
func (h *SoundHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadURL godoc
// @Summary Issue a signed download token for a sound
// @Tags Sounds
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sound ID"
// @Success 200 {object} response.Envelope
// @Router /sounds/{id}/download-url [get]
func (h *SoundHandler) DownloadURL(c *gin.Context) {
	signed, err := h.service.SignedDownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, signed, nil)
}

// Download godoc
// @Summary Stream a sound file via a signed token
// @Tags Sounds
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /sounds/download [get]
func (h *SoundHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	sound, file, err := h.service.OpenByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat sound file"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+sound.Filename+`"`)
	http.ServeContent(c.Writer, c.Request, sound.Filename, info.ModTime(), file)
}
