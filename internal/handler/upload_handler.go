package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/service"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
	"github.com/yar-app/yar-api/pkg/ytdlp"
)

const ndjsonContentType = "application/x-ndjson"

type uploadService interface {
	Info(ctx context.Context, req models.UploadInfoRequest) (*ytdlp.VideoInfo, error)
	CheckImport(ctx context.Context, req models.UploadURLRequest, force bool) error
	ImportURL(ctx context.Context, user *models.User, req models.UploadURLRequest, sink service.ProgressSink) (*models.VideoView, error)
	CreateFile(ctx context.Context, req models.UploadFileRequest) (*models.MediaView, error)
	AppendPart(ctx context.Context, id string, body io.Reader) error
	Complete(ctx context.Context, user *models.User, id string, req models.UploadFileRequest) (*models.VideoView, error)
	Cancel(ctx context.Context, id string) error
}

// UploadHandler serves remote imports and chunked file uploads.
type UploadHandler struct {
	service     uploadService
	maxPartSize int64
	logger      *zap.Logger
}

// NewUploadHandler constructs an UploadHandler. Parts larger than
// maxPartSize bytes are rejected.
func NewUploadHandler(service uploadService, maxPartSize int64, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{service: service, maxPartSize: maxPartSize, logger: logger}
}

// Info godoc
// @Summary Remote video info
// @Tags Upload
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.UploadInfoRequest true "Remote URL"
// @Success 200 {object} ytdlp.VideoInfo
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /upload/info [post]
func (h *UploadHandler) Info(c *gin.Context) {
	var req models.UploadInfoRequest
	if !bindJSON(c, &req, "invalid info payload") {
		return
	}
	info, err := h.service.Info(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "max-age=3600")
	c.JSON(http.StatusOK, info)
}

// ImportURL godoc
// @Summary Import a remote video
// @Description Streams newline delimited JSON: download progress objects, then {"success":true,"video":{...}}. A failure after streaming started is sent as a final error envelope line.
// @Tags Upload
// @Security BearerAuth
// @Accept json
// @Produce application/x-ndjson
// @Param force query bool false "Skip the duplicate source check"
// @Param payload body models.UploadURLRequest true "Import request"
// @Success 200 {object} models.UploadResult
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /upload/url [post]
func (h *UploadHandler) ImportURL(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.UploadURLRequest
	if !bindJSON(c, &req, "invalid upload payload") {
		return
	}
	if err := h.service.CheckImport(c.Request.Context(), req, c.Query("force") == "true"); err != nil {
		response.Error(c, err)
		return
	}

	streaming := false
	writeLine := func(v interface{}) error {
		if !streaming {
			streaming = true
			c.Header("Content-Type", ndjsonContentType)
			c.Header("Cache-Control", "no-store")
			c.Status(http.StatusOK)
		}
		if _, err := c.Writer.Write(response.Line(v)); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	view, err := h.service.ImportURL(c.Request.Context(), user, req, writeLine)
	if err != nil {
		if !streaming {
			response.Error(c, err)
			return
		}
		_, envelope := response.Build(err)
		if writeErr := writeLine(envelope); writeErr != nil {
			h.logger.Debug("failed to report import failure", zap.Error(writeErr))
		}
		return
	}
	if err := writeLine(models.UploadResult{Success: true, Video: view}); err != nil {
		h.logger.Debug("failed to send import result", zap.String("video_id", view.ID), zap.Error(err))
	}
}

// CreateFile godoc
// @Summary Start a chunked upload
// @Tags Upload
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.UploadFileRequest true "Upload metadata"
// @Success 200 {object} models.MediaView
// @Failure 400 {object} response.Envelope
// @Router /upload/file [post]
func (h *UploadHandler) CreateFile(c *gin.Context) {
	var req models.UploadFileRequest
	if !bindJSON(c, &req, "invalid upload payload") {
		return
	}
	media, err := h.service.CreateFile(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, media)
}

// AppendPart godoc
// @Summary Upload a part
// @Description Appends the raw request body to a processing upload.
// @Tags Upload
// @Security BearerAuth
// @Accept octet-stream
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} response.Success
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /upload/file/{id}/part [post]
func (h *UploadHandler) AppendPart(c *gin.Context) {
	if h.maxPartSize > 0 && c.Request.ContentLength > h.maxPartSize {
		response.Error(c, h.partTooLarge())
		return
	}
	body := io.Reader(c.Request.Body)
	if h.maxPartSize > 0 {
		body = io.LimitReader(c.Request.Body, h.maxPartSize+1)
	}
	part, err := io.ReadAll(body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "failed to read part"))
		return
	}
	if h.maxPartSize > 0 && int64(len(part)) > h.maxPartSize {
		response.Error(c, h.partTooLarge())
		return
	}
	if err := h.service.AppendPart(c.Request.Context(), c.Param("id"), bytes.NewReader(part)); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

// Complete godoc
// @Summary Finish a chunked upload
// @Tags Upload
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param payload body models.UploadFileRequest true "Upload metadata"
// @Success 200 {object} models.VideoView
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /upload/file/{id}/complete [post]
func (h *UploadHandler) Complete(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.UploadFileRequest
	if !bindJSON(c, &req, "invalid upload payload") {
		return
	}
	video, err := h.service.Complete(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, video)
}

// Cancel godoc
// @Summary Cancel a chunked upload
// @Tags Upload
// @Security BearerAuth
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} response.Success
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /upload/file/{id}/cancel [post]
func (h *UploadHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

func (h *UploadHandler) partTooLarge() error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("part exceeds %d bytes", h.maxPartSize))
}
