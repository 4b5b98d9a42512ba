package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/middleware"
	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/response"
)

type settingService interface {
	List(ctx context.Context) (map[string]models.Setting, error)
	Get(ctx context.Context, key string, authenticated bool) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// SettingHandler exposes instance settings.
type SettingHandler struct {
	service settingService
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(service settingService) *SettingHandler {
	return &SettingHandler{service: service}
}

// List godoc
// @Summary List settings
// @Tags Settings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]models.Setting
// @Router /settings [get]
func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// Get godoc
// @Summary Get setting
// @Description Public settings are readable without a token.
// @Tags Settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /settings/{key} [get]
func (h *SettingHandler) Get(c *gin.Context) {
	key := c.Param("key")
	_, authenticated := middleware.CurrentUser(c)
	value, err := h.service.Get(c.Request.Context(), key, authenticated)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{key: value})
}

// Update godoc
// @Summary Update setting
// @Tags Settings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param payload body models.UpdateSettingRequest true "Value matching the declared type"
// @Success 200 {object} response.Success
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /settings/{key} [put]
func (h *SettingHandler) Update(c *gin.Context) {
	var req models.UpdateSettingRequest
	if !bindJSON(c, &req, "invalid setting payload") {
		return
	}
	if err := h.service.Set(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}
