package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
)

var mediaCols = []string{"id", "extension", "type", "mime_type", "file_size", "duration", "width", "height", "processing", "created_at", "updated_at"}

func TestMediaFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMediaRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM media WHERE id = $1 LIMIT 1")).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(mediaCols).AddRow("m1", "mp4", "VIDEO", "video/mp4", 1024, 12.5, 1280, 720, false, now, now))

	media, err := repo.FindByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1.mp4", media.FileName())
	require.NotNil(t, media.Duration)
	assert.Equal(t, 12.5, *media.Duration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaFindByIDsSkipsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMediaRepository(db)

	out, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMediaRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1::uuid[])")).
		WillReturnRows(sqlmock.NewRows(mediaCols).
			AddRow("m1", "mp4", "VIDEO", "video/mp4", 1024, nil, nil, nil, false, now, now).
			AddRow("t1", "jpg", "IMAGE", "image/jpg", 64, nil, nil, nil, false, now, now))

	out, err := repo.FindByIDs(context.Background(), []string{"m1", "t1"})
	require.NoError(t, err)
	assert.Equal(t, models.MediaImage, out["t1"].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
