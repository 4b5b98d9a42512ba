package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/export"
	"github.com/yar-app/yar-api/pkg/response"
)

type statsService interface {
	Get(ctx context.Context) (*models.Stats, error)
	Export(ctx context.Context, rawFormat string) ([]byte, export.Format, error)
}

// StatsHandler exposes instance statistics to administrators.
type StatsHandler struct {
	service statsService
	now     func() time.Time
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{service: service, now: time.Now}
}

// Get godoc
// @Summary Instance statistics
// @Tags Stats
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Stats
// @Failure 403 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Export godoc
// @Summary Export statistics
// @Tags Stats
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /stats/export [get]
func (h *StatsHandler) Export(c *gin.Context) {
	body, format, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("yar-stats-%s.%s", h.now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), body)
}
