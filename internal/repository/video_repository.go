package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yar-app/yar-api/internal/models"
)

const videoSelect = `SELECT v.id, v.title, v.description, v.source_url, v.tags, v.author_id, v.media_id, v.thumbnail_id, v.created_at, v.updated_at, u.username AS author_username, u.created_at AS author_created_at FROM videos v JOIN users u ON u.id = v.author_id`

type videoRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     sql.NullString `db:"description"`
	SourceURL       sql.NullString `db:"source_url"`
	Tags            pq.StringArray `db:"tags"`
	AuthorID        string         `db:"author_id"`
	MediaID         string         `db:"media_id"`
	ThumbnailID     sql.NullString `db:"thumbnail_id"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	AuthorUsername  string         `db:"author_username"`
	AuthorCreatedAt time.Time      `db:"author_created_at"`
}

func (r videoRow) toModel() models.Video {
	video := models.Video{
		ID:              r.ID,
		Title:           r.Title,
		Tags:            []string(r.Tags),
		AuthorID:        r.AuthorID,
		MediaID:         r.MediaID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		AuthorUsername:  r.AuthorUsername,
		AuthorCreatedAt: r.AuthorCreatedAt,
	}
	if video.Tags == nil {
		video.Tags = []string{}
	}
	video.Description = nullableString(r.Description)
	video.SourceURL = nullableString(r.SourceURL)
	video.ThumbnailID = nullableString(r.ThumbnailID)
	return video
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func rowsToVideos(rows []videoRow) []models.Video {
	videos := make([]models.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, row.toModel())
	}
	return videos
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// VideoRepository stores videos.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs a video repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// List returns one page of videos in a pseudo random order derived from
// seed. Pages requested with the same seed never overlap.
func (r *VideoRepository) List(ctx context.Context, seed string, skip, count int) ([]models.Video, error) {
	const query = videoSelect + ` ORDER BY md5(v.id::text || $1), v.id LIMIT $2 OFFSET $3`
	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, query, seed, count, skip); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return rowsToVideos(rows), nil
}

// Search matches titles case-insensitively, newest first.
func (r *VideoRepository) Search(ctx context.Context, term string, limit int) ([]models.Video, error) {
	const query = videoSelect + ` WHERE v.title ILIKE $1 ORDER BY v.created_at DESC LIMIT $2`
	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, query, "%"+likeEscaper.Replace(term)+"%", limit); err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	return rowsToVideos(rows), nil
}

// Tags returns every distinct tag with its usage count, most used first.
func (r *VideoRepository) Tags(ctx context.Context) ([]models.TagCount, error) {
	const query = `SELECT tag, COUNT(*) AS count FROM videos, unnest(tags) AS tag GROUP BY tag ORDER BY count DESC, tag ASC`
	var tags []models.TagCount
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// FindByID returns a single video.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	const query = videoSelect + ` WHERE v.id = $1 LIMIT 1`
	var row videoRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	video := row.toModel()
	return &video, nil
}

// CountBySourceURL counts videos imported from url.
func (r *VideoRepository) CountBySourceURL(ctx context.Context, url string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM videos WHERE source_url = $1`, url); err != nil {
		return 0, fmt.Errorf("count videos by source url: %w", err)
	}
	return total, nil
}

// Create inserts the given media rows and then the video in one transaction.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video, media ...*models.Media) error {
	return r.create(ctx, video, nil, media)
}

// Publish writes back the finished upload row and creates the video that
// plays it, together with media, in one transaction. On failure the upload
// keeps its processing state.
func (r *VideoRepository) Publish(ctx context.Context, video *models.Video, upload *models.Media, media ...*models.Media) error {
	return r.create(ctx, video, upload, media)
}

func (r *VideoRepository) create(ctx context.Context, video *models.Video, upload *models.Media, media []*models.Media) (err error) {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now
	if video.Tags == nil {
		video.Tags = []string{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create video transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if upload != nil {
		if err = updateMedia(ctx, tx, upload); err != nil {
			return err
		}
	}
	for _, m := range media {
		if err = insertMedia(ctx, tx, m); err != nil {
			return err
		}
	}

	const query = `INSERT INTO videos (id, title, description, source_url, tags, author_id, media_id, thumbnail_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err = tx.ExecContext(ctx, query, video.ID, video.Title, video.Description, video.SourceURL, pq.StringArray(video.Tags), video.AuthorID, video.MediaID, video.ThumbnailID, video.CreatedAt, video.UpdatedAt); err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create video: %w", err)
	}
	return nil
}

// Update writes back title, description and tags.
func (r *VideoRepository) Update(ctx context.Context, video *models.Video) error {
	video.UpdatedAt = time.Now().UTC()
	const query = `UPDATE videos SET title = $2, description = $3, tags = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, video.ID, video.Title, video.Description, pq.StringArray(video.Tags), video.UpdatedAt); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// ReplaceThumbnail stores thumb, points the video at it and removes the
// previous thumbnail row. The previous row is returned when one existed.
func (r *VideoRepository) ReplaceThumbnail(ctx context.Context, videoID string, thumb *models.Media) (previous *models.Media, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin replace thumbnail transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var oldID sql.NullString
	if err = tx.GetContext(ctx, &oldID, `SELECT thumbnail_id FROM videos WHERE id = $1 FOR UPDATE`, videoID); err != nil {
		if isNoRows(err) {
			err = sql.ErrNoRows
			return nil, err
		}
		return nil, fmt.Errorf("lock video: %w", err)
	}

	if err = insertMedia(ctx, tx, thumb); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE videos SET thumbnail_id = $2, updated_at = $3 WHERE id = $1`, videoID, thumb.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("set thumbnail: %w", err)
	}

	if oldID.Valid {
		var old models.Media
		if err = tx.GetContext(ctx, &old, `DELETE FROM media WHERE id = $1 RETURNING `+mediaColumns, oldID.String); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("delete previous thumbnail: %w", err)
			}
			err = nil
		} else {
			previous = &old
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace thumbnail: %w", err)
	}
	return previous, nil
}

// Delete removes the video and its media rows atomically and returns the
// removed media so their files can be deleted.
func (r *VideoRepository) Delete(ctx context.Context, id string) (removed []models.Media, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete video transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var refs struct {
		MediaID     string         `db:"media_id"`
		ThumbnailID sql.NullString `db:"thumbnail_id"`
	}
	if err = tx.GetContext(ctx, &refs, `DELETE FROM videos WHERE id = $1 RETURNING media_id, thumbnail_id`, id); err != nil {
		if isNoRows(err) {
			err = sql.ErrNoRows
			return nil, err
		}
		return nil, fmt.Errorf("delete video: %w", err)
	}

	ids := pq.StringArray{refs.MediaID}
	if refs.ThumbnailID.Valid {
		ids = append(ids, refs.ThumbnailID.String)
	}
	if err = tx.SelectContext(ctx, &removed, `DELETE FROM media WHERE id = ANY($1::uuid[]) RETURNING `+mediaColumns, ids); err != nil {
		return nil, fmt.Errorf("delete video media: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete video: %w", err)
	}
	return removed, nil
}
