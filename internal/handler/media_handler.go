package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/service"
	"github.com/yar-app/yar-api/pkg/httprange"
	"github.com/yar-app/yar-api/pkg/response"
)

type mediaService interface {
	Open(ctx context.Context, id string) (*service.MediaFile, error)
}

// MediaHandler streams stored media files.
type MediaHandler struct {
	service mediaService
	logger  *zap.Logger
}

// NewMediaHandler constructs a MediaHandler.
func NewMediaHandler(service mediaService, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{service: service, logger: logger}
}

// Stream godoc
// @Summary Stream media
// @Description Serves one byte range of a media file. Requests without a Range header get the whole file as 206.
// @Tags Media
// @Produce octet-stream
// @Param id path string true "Media ID"
// @Param token query string true "Media token"
// @Param Range header string false "Byte range, e.g. bytes=0-1023"
// @Success 206 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 416 {string} string
// @Router /media/{id} [get]
func (h *MediaHandler) Stream(c *gin.Context) {
	file, err := h.service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.File.Close()

	rng, err := httprange.ParseSingle(c.GetHeader("Range"), file.Size)
	if err != nil {
		c.Header("Content-Range", httprange.Unsatisfied(file.Size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	c.Header("Content-Type", file.Media.MimeType)
	c.Header("Content-Length", strconv.FormatInt(rng.Length(), 10))
	c.Header("Content-Range", rng.ContentRange(file.Size))
	c.Header("Accept-Ranges", "bytes")
	c.Status(http.StatusPartialContent)

	if c.Request.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(c.Writer, io.NewSectionReader(file.File, rng.Start, rng.Length())); err != nil {
		h.logger.Debug("media stream interrupted", zap.String("media_id", file.Media.ID), zap.Error(err))
	}
}
