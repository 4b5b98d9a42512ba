package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/export"
)

type mockStatsRepo struct {
	stats *models.Stats
	err   error
}

func (m *mockStatsRepo) Collect(ctx context.Context) (*models.Stats, error) {
	return m.stats, m.err
}

func TestStatsServiceExportCSV(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{stats: &models.Stats{
		Storage: models.StorageStats{Total: 300, Images: 100, Videos: 200},
		Videos:  models.VideoStats{Total: 2, TotalDuration: 90, AverageDuration: 45},
	}}, nil)

	out, format, err := svc.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, format)
	body := string(out)
	assert.True(t, strings.HasPrefix(body, "Metric,Value"))
	assert.Contains(t, body, "Storage total (bytes),300")
	assert.Contains(t, body, "Average duration (s),45.00")
}

func TestStatsServiceExportPDF(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{stats: &models.Stats{}}, nil)

	out, format, err := svc.Export(context.Background(), "PDF")
	require.NoError(t, err)
	assert.Equal(t, export.FormatPDF, format)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestStatsServiceErrors(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{err: errors.New("db down")}, nil)

	_, _, err := svc.Export(context.Background(), "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Get(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
