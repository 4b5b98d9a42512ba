package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/export"
)

type statsServiceMock struct{}

func (statsServiceMock) Get(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{
		Storage: models.StorageStats{Total: 30, Images: 10, Videos: 20},
		Videos:  models.VideoStats{Total: 2, TotalDuration: 90, AverageDuration: 45},
	}, nil
}

func (statsServiceMock) Export(ctx context.Context, rawFormat string) ([]byte, export.Format, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return []byte("Metric,Value\n"), format, nil
}

func TestStatsHandlerGet(t *testing.T) {
	handler := NewStatsHandler(statsServiceMock{})

	c, rec := newTestContext(http.MethodGet, "/stats", nil)
	withUser(c, testAdmin)
	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"storage": {"total": 30, "images": 10, "videos": 20},
		"videos": {"total": 2, "totalDuration": 90, "averageDuration": 45}
	}`, rec.Body.String())
}

func TestStatsHandlerExport(t *testing.T) {
	handler := NewStatsHandler(statsServiceMock{})
	handler.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

	c, rec := newTestContext(http.MethodGet, "/stats/export?format=csv", nil)
	withUser(c, testAdmin)
	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="yar-stats-20240309.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Metric,Value\n", rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/stats/export?format=xlsx", nil)
	withUser(c, testAdmin)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
