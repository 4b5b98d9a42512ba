package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/export"
)

type statsRepository interface {
	Collect(ctx context.Context) (*models.Stats, error)
}

// StatsService reports instance usage to administrators.
type StatsService struct {
	repo   statsRepository
	logger *zap.Logger
}

// NewStatsService constructs a stats service.
func NewStatsService(repo statsRepository, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, logger: logger}
}

// Get collects storage and video figures.
func (s *StatsService) Get(ctx context.Context) (*models.Stats, error) {
	stats, err := s.repo.Collect(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to collect stats")
	}
	return stats, nil
}

// Export renders the figures as a downloadable report.
func (s *StatsService) Export(ctx context.Context, rawFormat string) ([]byte, export.Format, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, err.Error())
	}
	stats, err := s.Get(ctx)
	if err != nil {
		return nil, "", err
	}

	row := func(metric, value string) map[string]string {
		return map[string]string{"Metric": metric, "Value": value}
	}
	seconds := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	data := export.Dataset{
		Title:   "Instance statistics",
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			row("Storage total (bytes)", strconv.FormatInt(stats.Storage.Total, 10)),
			row("Storage images (bytes)", strconv.FormatInt(stats.Storage.Images, 10)),
			row("Storage videos (bytes)", strconv.FormatInt(stats.Storage.Videos, 10)),
			row("Videos", strconv.Itoa(stats.Videos.Total)),
			row("Total duration (s)", seconds(stats.Videos.TotalDuration)),
			row("Average duration (s)", seconds(stats.Videos.AverageDuration)),
		},
	}

	out, err := export.Render(format, data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to render report")
	}
	s.logger.Debug("stats exported", zap.String("format", string(format)), zap.Int("bytes", len(out)))
	return out, format, nil
}
