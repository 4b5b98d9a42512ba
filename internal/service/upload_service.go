package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/ffmpeg"
	"github.com/yar-app/yar-api/pkg/storage"
	"github.com/yar-app/yar-api/pkg/ytdlp"
)

const (
	uploadSourceURL  = "url"
	uploadSourceFile = "file"

	maxThumbnailBytes = 10 << 20
)

// Downloader fetches remote videos.
type Downloader interface {
	Info(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
	Download(ctx context.Context, url string, w io.Writer, onProgress func(ytdlp.Progress)) error
}

// Prober reads stream metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
}

// ProgressSink receives NDJSON lines while an import runs.
type ProgressSink func(v interface{}) error

// UploadConfig tunes upload handling.
type UploadConfig struct {
	InfoCacheTTL     time.Duration
	ProgressInterval time.Duration
}

// UploadService imports remote videos and assembles chunked uploads.
type UploadService struct {
	videos      videoRepository
	media       mediaRepository
	views       *VideoService
	storage     *storage.LocalStorage
	downloader  Downloader
	prober      Prober
	thumbnailer Thumbnailer
	cache       *CacheService
	http        *http.Client
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      UploadConfig
}

// NewUploadService constructs an upload service.
func NewUploadService(videos videoRepository, media mediaRepository, views *VideoService, store *storage.LocalStorage, downloader Downloader, prober Prober, thumbnailer Thumbnailer, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config UploadConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.InfoCacheTTL <= 0 {
		config.InfoCacheTTL = time.Hour
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = 250 * time.Millisecond
	}
	return &UploadService{
		videos:      videos,
		media:       media,
		views:       views,
		storage:     store,
		downloader:  downloader,
		prober:      prober,
		thumbnailer: thumbnailer,
		cache:       cache,
		http:        &http.Client{Timeout: 30 * time.Second},
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      config,
	}
}

// Info returns downloader metadata for a remote URL.
func (s *UploadService) Info(ctx context.Context, req models.UploadInfoRequest) (*ytdlp.VideoInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid info payload")
	}

	info, err := cached(ctx, s.cache, infoCacheKey(req.URL), s.config.InfoCacheTTL, func(ctx context.Context) (*ytdlp.VideoInfo, error) {
		return s.downloader.Info(ctx, req.URL)
	})
	if err != nil {
		s.logger.Debug("video info lookup failed", zap.String("url", req.URL), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidURL.Type, appErrors.ErrInvalidURL.Code, appErrors.ErrInvalidURL.Message)
	}
	return info, nil
}

// CheckImport validates an import request and rejects already imported
// sources unless force is set. It runs before any progress is streamed.
func (s *UploadService) CheckImport(ctx context.Context, req models.UploadURLRequest, force bool) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid upload payload")
	}
	if force {
		return nil
	}
	count, err := s.videos.CountBySourceURL(ctx, strings.TrimSpace(req.URL))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to check duplicates")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrMediaAlreadyExists, "video already exists")
	}
	return nil
}

// ImportURL downloads a remote video, reporting progress to sink, and
// creates the video with its media and thumbnail.
func (s *UploadService) ImportURL(ctx context.Context, user *models.User, req models.UploadURLRequest, sink ProgressSink) (view *models.VideoView, err error) {
	defer func() { s.metrics.RecordUpload(uploadSourceURL, err) }()

	info, err := s.downloader.Info(ctx, req.Input)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidURL.Type, appErrors.ErrInvalidURL.Code, appErrors.ErrInvalidURL.Message)
	}
	ext := req.Ext
	if ext == "" {
		ext = info.Ext
	}
	if ext == "" {
		ext = "mp4"
	}

	media := &models.Media{
		ID:        uuid.NewString(),
		Extension: ext,
		Type:      models.MediaVideo,
		MimeType:  "video/" + ext,
	}
	name := MediaPath(media)
	file, err := s.storage.Create(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to create media file")
	}

	throttle := rate.NewLimiter(rate.Every(s.config.ProgressInterval), 1)
	err = s.downloader.Download(ctx, req.URL, file, func(p ytdlp.Progress) {
		if p.Percent < 100 && !throttle.Allow() {
			return
		}
		if sinkErr := sink(p); sinkErr != nil {
			s.logger.Debug("progress sink closed", zap.Error(sinkErr))
		}
	})
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.storage.Delete(name)
		return nil, toolFailure(err, "videoUpload", "failed to upload video")
	}

	created := []*models.Media{media}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.finalise(gctx, media)
	})
	var thumb *models.Media
	g.Go(func() error {
		thumb = s.importThumbnail(gctx, info.Thumbnail, media)
		return nil
	})
	if err = g.Wait(); err != nil {
		_ = s.storage.Delete(name)
		return nil, err
	}

	video := &models.Video{
		Title:           req.Title,
		SourceURL:       stringPtr(strings.TrimSpace(req.URL)),
		Tags:            cleanTags(req.Tags),
		AuthorID:        user.ID,
		MediaID:         media.ID,
		AuthorUsername:  user.Username,
		AuthorCreatedAt: user.CreatedAt,
	}
	if thumb != nil {
		video.ThumbnailID = &thumb.ID
		created = append(created, thumb)
	}
	if err = s.videos.Create(ctx, video, created...); err != nil {
		s.removeAll(created)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to save video")
	}
	s.logger.Info("video imported", zap.String("video_id", video.ID), zap.String("user_id", user.ID), zap.Int64("bytes", media.FileSize))
	return s.views.View(ctx, video)
}

// CreateFile starts a chunked upload with an empty processing media row.
func (s *UploadService) CreateFile(ctx context.Context, req models.UploadFileRequest) (*models.MediaView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid upload payload")
	}
	media := &models.Media{
		ID:         uuid.NewString(),
		Extension:  req.Ext,
		Type:       models.MediaVideo,
		MimeType:   "video/" + req.Ext,
		Processing: true,
	}
	if _, err := s.storage.Save(MediaPath(media), nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to create media file")
	}
	if err := s.media.Create(ctx, media); err != nil {
		_ = s.storage.Delete(MediaPath(media))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to create media")
	}
	return s.views.media.View(media)
}

// AppendPart adds a chunk to a processing upload.
func (s *UploadService) AppendPart(ctx context.Context, id string, body io.Reader) error {
	media, err := s.processing(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.storage.Append(MediaPath(media), body); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to append part")
	}
	return nil
}

// Complete finishes a chunked upload and creates its video.
func (s *UploadService) Complete(ctx context.Context, user *models.User, id string, req models.UploadFileRequest) (view *models.VideoView, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid upload payload")
	}
	media, err := s.processing(ctx, id)
	if err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordUpload(uploadSourceFile, err) }()

	if err = s.finalise(ctx, media); err != nil {
		return nil, err
	}

	video := &models.Video{
		Title:           req.Title,
		Tags:            cleanTags(req.Tags),
		AuthorID:        user.ID,
		MediaID:         media.ID,
		AuthorUsername:  user.Username,
		AuthorCreatedAt: user.CreatedAt,
	}
	if u := strings.TrimSpace(req.URL); u != "" {
		video.SourceURL = &u
	}

	var created []*models.Media
	if thumb, thumbErr := s.views.extractThumbnail(ctx, media); thumbErr != nil {
		s.logger.Warn("thumbnail generation failed", zap.String("media_id", media.ID), zap.Error(thumbErr))
	} else {
		video.ThumbnailID = &thumb.ID
		created = append(created, thumb)
	}

	if err = s.videos.Publish(ctx, video, media, created...); err != nil {
		s.removeAll(created)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to save video")
	}
	s.logger.Info("video uploaded", zap.String("video_id", video.ID), zap.String("user_id", user.ID), zap.Int64("bytes", media.FileSize))
	return s.views.View(ctx, video)
}

// Cancel discards a processing upload.
func (s *UploadService) Cancel(ctx context.Context, id string) error {
	media, err := s.processing(ctx, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, media.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to delete media")
	}
	if err := s.storage.Delete(MediaPath(media)); err != nil {
		s.logger.Warn("failed to remove cancelled upload", zap.String("media_id", media.ID), zap.Error(err))
	}
	return nil
}

func (s *UploadService) processing(ctx context.Context, id string) (*models.Media, error) {
	media, err := s.media.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMediaNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load media")
	}
	if !media.Processing {
		return nil, appErrors.ErrMediaNotProcessing
	}
	return media, nil
}

// finalise records size and probed metadata on a downloaded video file.
// A failed probe leaves the metadata empty.
func (s *UploadService) finalise(ctx context.Context, media *models.Media) error {
	name := MediaPath(media)
	size, err := s.storage.Size(name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to read media size")
	}
	media.FileSize = size
	media.Processing = false

	probe, err := s.prober.Probe(ctx, s.storage.Path(name))
	if err != nil {
		s.logger.Warn("probe failed", zap.String("media_id", media.ID), zap.Error(err))
		return nil
	}
	media.Duration = probe.Duration
	media.Width = probe.Width
	media.Height = probe.Height
	return nil
}

// importThumbnail fetches the remote preview image, falling back to a frame
// of the downloaded video. It returns nil when neither works.
func (s *UploadService) importThumbnail(ctx context.Context, remote string, video *models.Media) *models.Media {
	if remote != "" {
		thumb, err := s.fetchThumbnail(ctx, remote)
		if err == nil {
			return thumb
		}
		s.logger.Warn("remote thumbnail fetch failed", zap.String("url", remote), zap.Error(err))
	}
	thumb, err := s.views.extractThumbnail(ctx, video)
	if err != nil {
		s.logger.Warn("thumbnail generation failed", zap.String("media_id", video.ID), zap.Error(err))
		return nil
	}
	return thumb
}

func (s *UploadService) fetchThumbnail(ctx context.Context, remote string) (*models.Media, error) {
	parsed, err := url.Parse(remote)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), "."))
	if ext == "" {
		ext = "jpg"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail responded %d", resp.StatusCode)
	}

	thumb := &models.Media{
		ID:        uuid.NewString(),
		Extension: ext,
		Type:      models.MediaImage,
		MimeType:  "image/" + ext,
	}
	size, err := s.storage.SaveStream(MediaPath(thumb), io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		_ = s.storage.Delete(MediaPath(thumb))
		return nil, err
	}
	thumb.FileSize = size
	return thumb, nil
}

func (s *UploadService) removeAll(media []*models.Media) {
	for _, m := range media {
		_ = s.storage.Delete(MediaPath(m))
	}
}

// toolFailure maps an external tool error to a 500 carrying its output.
func toolFailure(err error, detailKey, message string) error {
	output := err.Error()
	var dlErr *ytdlp.Error
	var ffErr *ffmpeg.ToolError
	switch {
	case errors.As(err, &dlErr) && dlErr.Output != "":
		output = dlErr.Output
	case errors.As(err, &ffErr) && ffErr.Output != "":
		output = ffErr.Output
	}
	appErr := appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, message)
	appErr.Details = map[string]string{detailKey: output}
	return appErr
}

func infoCacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(rawURL)))
	return "upload:info:" + hex.EncodeToString(sum[:])
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func stringPtr(v string) *string {
	return &v
}
