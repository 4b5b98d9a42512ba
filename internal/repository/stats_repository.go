package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yar-app/yar-api/internal/models"
)

// StatsRepository aggregates instance figures.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs a stats repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Collect computes storage usage and video totals in a single round trip.
func (r *StatsRepository) Collect(ctx context.Context) (*models.Stats, error) {
	const query = `SELECT
	COALESCE(SUM(file_size) FILTER (WHERE type = 'IMAGE'), 0) AS images,
	COALESCE(SUM(file_size) FILTER (WHERE type = 'VIDEO'), 0) AS videos,
	COALESCE(SUM(duration) FILTER (WHERE type = 'VIDEO'), 0) AS total_duration,
	(SELECT COUNT(*) FROM videos) AS video_count
FROM media`
	var row struct {
		Images        int64   `db:"images"`
		Videos        int64   `db:"videos"`
		TotalDuration float64 `db:"total_duration"`
		VideoCount    int     `db:"video_count"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}

	stats := &models.Stats{
		Storage: models.StorageStats{
			Total:  row.Images + row.Videos,
			Images: row.Images,
			Videos: row.Videos,
		},
		Videos: models.VideoStats{
			Total:         row.VideoCount,
			TotalDuration: row.TotalDuration,
		},
	}
	if row.VideoCount > 0 {
		stats.Videos.AverageDuration = row.TotalDuration / float64(row.VideoCount)
	}
	return stats, nil
}
