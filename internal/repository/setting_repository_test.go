package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	mock.ExpectExec("INSERT INTO settings[\\s\\S]*ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs("MOTD", "hello", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), "MOTD", "hello"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	mock.ExpectQuery("SELECT key, value, updated_at FROM settings").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).AddRow("MIN_PASSWORD_LENGTH", "12", time.Now()))

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12", rows[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsCollect(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery("FROM media").
		WillReturnRows(sqlmock.NewRows([]string{"images", "videos", "total_duration", "video_count"}).AddRow(100, 900, 120.0, 4))

	stats, err := repo.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stats.Storage.Total)
	assert.Equal(t, 30.0, stats.Videos.AverageDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsCollectWithoutVideos(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery("FROM media").
		WillReturnRows(sqlmock.NewRows([]string{"images", "videos", "total_duration", "video_count"}).AddRow(0, 0, 0.0, 0))

	stats, err := repo.Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Videos.AverageDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}
