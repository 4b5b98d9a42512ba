package handler

import (
	"context"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
)

type videoService interface {
	List(ctx context.Context, q models.VideoListQuery) (*models.VideoPage, error)
	Search(ctx context.Context, term string) (*models.VideoList, error)
	Tags(ctx context.Context) ([]models.TagCount, error)
	Get(ctx context.Context, id string) (*models.VideoView, error)
	Update(ctx context.Context, actor *models.User, id string, req models.UpdateVideoRequest) (*models.VideoView, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	ReplaceThumbnail(ctx context.Context, actor *models.User, id, filename, contentType string, body io.Reader) (*models.VideoView, error)
	RegenerateThumbnail(ctx context.Context, actor *models.User, id string) error
}

// VideoHandler serves browsing and editing of videos.
type VideoHandler struct {
	service videoService
}

// NewVideoHandler constructs a VideoHandler.
func NewVideoHandler(service videoService) *VideoHandler {
	return &VideoHandler{service: service}
}

// List godoc
// @Summary List videos
// @Description Shuffled listing. Pages requested with the same seed never overlap.
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Param skip query int false "Offset"
// @Param count query int false "Page size (max 100)"
// @Param seed query string false "Shuffle seed"
// @Success 200 {object} models.VideoPage
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	var q models.VideoListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid listing parameters"))
		return
	}
	page, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// Search godoc
// @Summary Search videos
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Param query query string false "Title fragment"
// @Success 200 {object} models.VideoList
// @Router /videos/search [get]
func (h *VideoHandler) Search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Tags godoc
// @Summary List tags
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.TagCount
// @Router /videos/tags [get]
func (h *VideoHandler) Tags(c *gin.Context) {
	tags, err := h.service.Tags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tags)
}

// Get godoc
// @Summary Get video
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} models.VideoView
// @Failure 404 {object} response.Envelope
// @Router /videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, video)
}

// Update godoc
// @Summary Update video
// @Tags Videos
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body models.UpdateVideoRequest true "Fields to change"
// @Success 200 {object} models.VideoView
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /videos/{id} [put]
func (h *VideoHandler) Update(c *gin.Context) {
	actor, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateVideoRequest
	if !bindJSON(c, &req, "invalid video payload") {
		return
	}
	video, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, video)
}

// Delete godoc
// @Summary Delete video
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Success
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	actor, ok := userFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

// ReplaceThumbnail godoc
// @Summary Upload thumbnail
// @Description Replaces the thumbnail with the first image file of the multipart form.
// @Tags Videos
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Video ID"
// @Param file formData file true "Image"
// @Success 200 {object} models.VideoView
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /videos/{id}/thumbnail [put]
func (h *VideoHandler) ReplaceThumbnail(c *gin.Context) {
	actor, ok := userFromContext(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "multipart form expected"))
		return
	}
	fields := make([]string, 0, len(form.File))
	for field, files := range form.File {
		if len(files) > 0 {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidMedia, "no thumbnail file supplied"))
		return
	}
	sort.Strings(fields)
	header := form.File[fields[0]][0]

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidMedia.Type, appErrors.ErrInvalidMedia.Code, "failed to read thumbnail"))
		return
	}
	defer file.Close()

	video, err := h.service.ReplaceThumbnail(c.Request.Context(), actor, c.Param("id"), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, video)
}

// RegenerateThumbnail godoc
// @Summary Regenerate thumbnail
// @Description Queues extraction of a new frame from the video.
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Param id path string true "Video ID"
// @Success 202 {object} response.Success
// @Failure 403 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /videos/{id}/thumbnail/regenerate [post]
func (h *VideoHandler) RegenerateThumbnail(c *gin.Context) {
	actor, ok := userFromContext(c)
	if !ok {
		return
	}
	if err := h.service.RegenerateThumbnail(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, response.Success{Success: true})
}
