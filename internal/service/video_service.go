package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/jobs"
	"github.com/yar-app/yar-api/pkg/storage"
)

const (
	defaultVideoCount = 20
	maxVideoCount     = 100
	searchLimit       = 100

	// JobRegenerateThumbnail is the job type handled by HandleThumbnailJob.
	JobRegenerateThumbnail = "thumbnail.regenerate"
)

type videoRepository interface {
	List(ctx context.Context, seed string, skip, count int) ([]models.Video, error)
	Search(ctx context.Context, term string, limit int) ([]models.Video, error)
	Tags(ctx context.Context) ([]models.TagCount, error)
	FindByID(ctx context.Context, id string) (*models.Video, error)
	CountBySourceURL(ctx context.Context, url string) (int, error)
	Create(ctx context.Context, video *models.Video, media ...*models.Media) error
	Publish(ctx context.Context, video *models.Video, upload *models.Media, media ...*models.Media) error
	Update(ctx context.Context, video *models.Video) error
	ReplaceThumbnail(ctx context.Context, videoID string, thumb *models.Media) (*models.Media, error)
	Delete(ctx context.Context, id string) ([]models.Media, error)
}

// Thumbnailer extracts a still frame from a video file.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, input, output string) (os.FileInfo, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// VideoService implements browsing and editing of videos.
type VideoService struct {
	videos      videoRepository
	media       *MediaService
	storage     *storage.LocalStorage
	thumbnailer Thumbnailer
	queue       jobEnqueuer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewVideoService constructs a video service. The queue is attached
// afterwards with SetQueue because the queue's handler is this service.
func NewVideoService(videos videoRepository, media *MediaService, store *storage.LocalStorage, thumbnailer Thumbnailer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VideoService{videos: videos, media: media, storage: store, thumbnailer: thumbnailer, metrics: metrics, validator: validate, logger: logger}
}

// SetQueue attaches the background queue used for thumbnail regeneration.
func (s *VideoService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// List returns one page of the seeded shuffle.
func (s *VideoService) List(ctx context.Context, q models.VideoListQuery) (*models.VideoPage, error) {
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Count <= 0 {
		q.Count = defaultVideoCount
	}
	if q.Count > maxVideoCount {
		q.Count = maxVideoCount
	}
	if q.Seed == "" {
		seed, err := randomSeed()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to generate seed")
		}
		q.Seed = seed
	}

	videos, err := s.videos.List(ctx, q.Seed, q.Skip, q.Count)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to list videos")
	}
	views, err := s.Views(ctx, videos)
	if err != nil {
		return nil, err
	}
	return &models.VideoPage{Videos: views, Seed: q.Seed}, nil
}

// Search matches titles case-insensitively. A blank term matches nothing.
func (s *VideoService) Search(ctx context.Context, term string) (*models.VideoList, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return &models.VideoList{Videos: []models.VideoView{}}, nil
	}
	videos, err := s.videos.Search(ctx, term, searchLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to search videos")
	}
	views, err := s.Views(ctx, videos)
	if err != nil {
		return nil, err
	}
	return &models.VideoList{Videos: views}, nil
}

// Tags lists every tag in use, most used first.
func (s *VideoService) Tags(ctx context.Context) ([]models.TagCount, error) {
	tags, err := s.videos.Tags(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to list tags")
	}
	if tags == nil {
		tags = []models.TagCount{}
	}
	return tags, nil
}

// Get returns a single video.
func (s *VideoService) Get(ctx context.Context, id string) (*models.VideoView, error) {
	video, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.View(ctx, video)
}

// Update edits title, description and tags. Only the author may edit.
func (s *VideoService) Update(ctx context.Context, actor *models.User, id string, req models.UpdateVideoRequest) (*models.VideoView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid video payload")
	}
	video, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.AuthorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrInsufficientPermissions, "only the author can edit this video")
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Description != nil {
		video.Description = req.Description
	}
	if req.Tags != nil {
		video.Tags = cleanTags(req.Tags)
	}
	if err := s.videos.Update(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to update video")
	}
	return s.View(ctx, video)
}

// Delete removes a video with its media. Authors and admins may delete.
func (s *VideoService) Delete(ctx context.Context, actor *models.User, id string) error {
	video, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if video.AuthorID != actor.ID && !actor.HasRole(models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrInsufficientPermissions, "only the author or an admin can delete this video")
	}

	removed, err := s.videos.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to delete video")
	}
	s.media.RemoveFiles(removed)
	s.logger.Info("video deleted", zap.String("video_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// ReplaceThumbnail stores an uploaded image as the video's thumbnail.
func (s *VideoService) ReplaceThumbnail(ctx context.Context, actor *models.User, id, filename, contentType string, body io.Reader) (*models.VideoView, error) {
	video, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.AuthorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrInsufficientPermissions, "only the author can change the thumbnail")
	}

	ext := strings.TrimPrefix(strings.ToLower(extensionOf(filename)), ".")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension("." + ext)
	}
	if !strings.HasPrefix(contentType, "image/") || ext == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidMedia, "thumbnail must be an image")
	}

	thumb := &models.Media{
		ID:        uuid.NewString(),
		Extension: ext,
		Type:      models.MediaImage,
		MimeType:  contentType,
	}
	size, err := s.storage.SaveStream(MediaPath(thumb), body)
	if err != nil {
		_ = s.storage.Delete(MediaPath(thumb))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to store thumbnail")
	}
	thumb.FileSize = size

	if err := s.swapThumbnail(ctx, video, thumb); err != nil {
		return nil, err
	}
	return s.View(ctx, video)
}

// RegenerateThumbnail queues extraction of a new thumbnail frame.
func (s *VideoService) RegenerateThumbnail(ctx context.Context, actor *models.User, id string) error {
	video, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if video.AuthorID != actor.ID {
		return appErrors.Clone(appErrors.ErrInsufficientPermissions, "only the author can regenerate the thumbnail")
	}
	if s.queue == nil {
		return appErrors.Clone(appErrors.ErrInternal, "thumbnail queue is not running")
	}

	err = s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobRegenerateThumbnail, Key: JobRegenerateThumbnail + ":" + video.ID, Payload: video.ID})
	if errors.Is(err, jobs.ErrDuplicate) {
		return nil
	}
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return appErrors.Clone(appErrors.ErrTooManyRequests, "thumbnail queue is full")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to queue thumbnail job")
	}
	return nil
}

// HandleThumbnailJob is the queue handler for JobRegenerateThumbnail.
func (s *VideoService) HandleThumbnailJob(ctx context.Context, job jobs.Job) (err error) {
	defer func() { s.metrics.RecordThumbnailJob(err) }()

	videoID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("thumbnail job %s: unexpected payload %T", job.ID, job.Payload)
	}
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("video gone before thumbnail job ran", zap.String("video_id", videoID))
			return nil
		}
		return err
	}
	found, err := s.media.Lookup(ctx, []string{video.MediaID})
	if err != nil {
		return err
	}
	source, ok := found[video.MediaID]
	if !ok {
		return fmt.Errorf("video %s has no media row", videoID)
	}

	thumb, err := s.extractThumbnail(ctx, &source)
	if err != nil {
		return err
	}
	if err := s.swapThumbnail(ctx, video, thumb); err != nil {
		return err
	}
	s.logger.Info("thumbnail regenerated", zap.String("video_id", videoID), zap.String("media_id", thumb.ID))
	return nil
}

// extractThumbnail renders a frame of source into a new, unsaved image row.
func (s *VideoService) extractThumbnail(ctx context.Context, source *models.Media) (*models.Media, error) {
	thumb := &models.Media{
		ID:        uuid.NewString(),
		Extension: "jpg",
		Type:      models.MediaImage,
		MimeType:  "image/jpeg",
	}
	info, err := s.thumbnailer.Thumbnail(ctx, s.storage.Path(MediaPath(source)), s.storage.Path(MediaPath(thumb)))
	if err != nil {
		_ = s.storage.Delete(MediaPath(thumb))
		return nil, err
	}
	thumb.FileSize = info.Size()
	return thumb, nil
}

func (s *VideoService) swapThumbnail(ctx context.Context, video *models.Video, thumb *models.Media) error {
	previous, err := s.videos.ReplaceThumbnail(ctx, video.ID, thumb)
	if err != nil {
		_ = s.storage.Delete(MediaPath(thumb))
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to replace thumbnail")
	}
	if previous != nil {
		s.media.RemoveFiles([]models.Media{*previous})
	}
	thumbID := thumb.ID
	video.ThumbnailID = &thumbID
	return nil
}

// View renders a single video.
func (s *VideoService) View(ctx context.Context, video *models.Video) (*models.VideoView, error) {
	views, err := s.Views(ctx, []models.Video{*video})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Views renders videos, loading all referenced media in one query.
func (s *VideoService) Views(ctx context.Context, videos []models.Video) ([]models.VideoView, error) {
	ids := make([]string, 0, len(videos)*2)
	for i := range videos {
		ids = append(ids, videos[i].MediaID)
		if videos[i].ThumbnailID != nil {
			ids = append(ids, *videos[i].ThumbnailID)
		}
	}
	media, err := s.media.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.VideoView, 0, len(videos))
	for i := range videos {
		v := &videos[i]
		view := models.VideoView{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			SourceURL:   v.SourceURL,
			Tags:        v.Tags,
			Author:      models.VideoAuthor{ID: v.AuthorID, Username: v.AuthorUsername, CreatedAt: v.AuthorCreatedAt},
			CreatedAt:   v.CreatedAt,
			UpdatedAt:   v.UpdatedAt,
		}
		if view.Tags == nil {
			view.Tags = []string{}
		}
		if m, ok := media[v.MediaID]; ok {
			if view.Media, err = s.media.View(&m); err != nil {
				return nil, err
			}
		}
		if v.ThumbnailID != nil {
			if m, ok := media[*v.ThumbnailID]; ok {
				if view.Thumbnail, err = s.media.View(&m); err != nil {
					return nil, err
				}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *VideoService) find(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load video")
	}
	return video, nil
}

func randomSeed() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func extensionOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i > strings.LastIndexAny(name, `/\`) {
		return name[i:]
	}
	return ""
}
