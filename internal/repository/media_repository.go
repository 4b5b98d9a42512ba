package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yar-app/yar-api/internal/models"
)

const mediaColumns = `id, extension, type, mime_type, file_size, duration, width, height, processing, created_at, updated_at`

// MediaRepository stores media metadata.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository constructs a media repository.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create inserts a media row.
func (r *MediaRepository) Create(ctx context.Context, media *models.Media) error {
	return insertMedia(ctx, r.db, media)
}

func insertMedia(ctx context.Context, db sqlx.ExtContext, media *models.Media) error {
	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if media.CreatedAt.IsZero() {
		media.CreatedAt = now
	}
	media.UpdatedAt = now

	const query = `INSERT INTO media (` + mediaColumns + `) VALUES (:id, :extension, :type, :mime_type, :file_size, :duration, :width, :height, :processing, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, db, query, media); err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

// FindByID returns a media row.
func (r *MediaRepository) FindByID(ctx context.Context, id string) (*models.Media, error) {
	const query = `SELECT ` + mediaColumns + ` FROM media WHERE id = $1 LIMIT 1`
	var media models.Media
	if err := r.db.GetContext(ctx, &media, query, id); err != nil {
		if isNoRows(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return &media, nil
}

// FindByIDs returns the media rows with the given identifiers, keyed by id.
func (r *MediaRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Media, error) {
	out := make(map[string]models.Media, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const query = `SELECT ` + mediaColumns + ` FROM media WHERE id = ANY($1::uuid[])`
	var rows []models.Media
	if err := r.db.SelectContext(ctx, &rows, query, pq.StringArray(ids)); err != nil {
		return nil, fmt.Errorf("find media by ids: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// updateMedia writes back probed metadata and the processing flag.
func updateMedia(ctx context.Context, db sqlx.ExtContext, media *models.Media) error {
	media.UpdatedAt = time.Now().UTC()
	const query = `UPDATE media SET file_size = :file_size, duration = :duration, width = :width, height = :height, processing = :processing, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, db, query, media); err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	return nil
}

// Delete removes a media row.
func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
