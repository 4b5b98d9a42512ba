package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/storage"
)

const mediaDir = "media"

type mediaRepository interface {
	FindByID(ctx context.Context, id string) (*models.Media, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Media, error)
	Create(ctx context.Context, media *models.Media) error
	Delete(ctx context.Context, id string) error
}

type mediaTokenSigner interface {
	MediaToken(mediaID string) (string, error)
}

// MediaFile is an opened media file ready to be served.
type MediaFile struct {
	Media *models.Media
	File  *os.File
	Size  int64
}

// MediaService resolves media rows to views and files on disk.
type MediaService struct {
	repo    mediaRepository
	storage *storage.LocalStorage
	tokens  mediaTokenSigner
	baseURL string
	logger  *zap.Logger
}

// NewMediaService constructs a media service. baseURL is the public origin
// plus API prefix that media links are built from.
func NewMediaService(repo mediaRepository, store *storage.LocalStorage, tokens mediaTokenSigner, baseURL string, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{repo: repo, storage: store, tokens: tokens, baseURL: baseURL, logger: logger}
}

// MediaPath is the storage name of a media file.
func MediaPath(m *models.Media) string {
	return path.Join(mediaDir, m.FileName())
}

// View renders m with a freshly signed media URL.
func (s *MediaService) View(m *models.Media) (*models.MediaView, error) {
	token, err := s.tokens.MediaToken(m.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to sign media token")
	}
	return &models.MediaView{
		ID:         m.ID,
		Type:       m.Type,
		MimeType:   m.MimeType,
		URL:        s.baseURL + "/media/" + m.ID + "?token=" + token,
		Processing: m.Processing,
		Duration:   m.Duration,
		Width:      m.Width,
		Height:     m.Height,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// Lookup loads media rows keyed by id. Missing ids are absent from the map.
func (s *MediaService) Lookup(ctx context.Context, ids []string) (map[string]models.Media, error) {
	if len(ids) == 0 {
		return map[string]models.Media{}, nil
	}
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load media")
	}
	return found, nil
}

// Open returns the media row and an open handle on its file. The caller
// closes File.
func (s *MediaService) Open(ctx context.Context, id string) (*MediaFile, error) {
	media, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMediaNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load media")
	}

	name := MediaPath(media)
	file, err := s.storage.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("media file missing on disk", zap.String("media_id", id))
			return nil, appErrors.ErrMediaNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to open media")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to stat media")
	}
	return &MediaFile{Media: media, File: file, Size: info.Size()}, nil
}

// RemoveFiles deletes the files backing already deleted media rows. Failures
// are logged; the rows are gone either way.
func (s *MediaService) RemoveFiles(media []models.Media) {
	for i := range media {
		if err := s.storage.Delete(MediaPath(&media[i])); err != nil {
			s.logger.Warn("failed to remove media file", zap.String("media_id", media[i].ID), zap.Error(err))
		}
	}
}
