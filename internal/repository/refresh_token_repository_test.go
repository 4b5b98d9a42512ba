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

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u1", Token: "opaque", DeviceName: "Firefox 120 (Linux )", DeviceType: models.DeviceDesktop, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(context.Background(), token))
	assert.NotEmpty(t, token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByIDReportsRowsAffected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.DeleteByID(context.Background(), "s1")
	require.NoError(t, err)
	second, err := repo.DeleteByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(0), second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRefreshTokenRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "device_name", "device_type", "created_at", "expires_at"}).
		AddRow("s2", "u1", "b", "Chrome", "MOBILE", now, now.Add(time.Hour)).
		AddRow("s1", "u1", "a", "Firefox", "DESKTOP", now.Add(-time.Minute), now.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE user_id = $1 AND expires_at > $2 ORDER BY created_at DESC")).
		WithArgs("u1", now).
		WillReturnRows(rows)

	sessions, err := repo.ListActiveByUser(context.Background(), "u1", now)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, models.DeviceMobile, sessions[0].DeviceType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
