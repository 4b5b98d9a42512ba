package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/repository"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

type mockSettingRepo struct {
	rows  map[string]string
	gets  int
	fails bool
}

func (m *mockSettingRepo) List(ctx context.Context) ([]repository.SettingRow, error) {
	out := make([]repository.SettingRow, 0, len(m.rows))
	for k, v := range m.rows {
		out = append(out, repository.SettingRow{Key: k, Value: v})
	}
	return out, nil
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (*repository.SettingRow, error) {
	m.gets++
	if m.fails {
		return nil, sql.ErrConnDone
	}
	v, ok := m.rows[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &repository.SettingRow{Key: key, Value: v}, nil
}

func (m *mockSettingRepo) Upsert(ctx context.Context, key, value string) error {
	m.rows[key] = value
	return nil
}

// memoryCacheRepo stores JSON payloads in a map.
type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func TestSettingServiceListUsesDefaults(t *testing.T) {
	repo := &mockSettingRepo{rows: map[string]string{"MOTD": "hello", "MIN_PASSWORD_LENGTH": "12"}}
	svc := NewSettingService(repo, nil, nil, 0, 0)

	settings, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, settings, len(SettingDefinitions))
	assert.Equal(t, "hello", settings["MOTD"].Value)
	assert.Equal(t, 12, settings["MIN_PASSWORD_LENGTH"].Value)
	assert.Equal(t, true, settings["ENABLE_REGISTRATION"].Value)
	assert.Equal(t, models.SettingBoolean, settings["ENABLE_REGISTRATION"].Type)
}

func TestSettingServiceGetVisibility(t *testing.T) {
	svc := NewSettingService(&mockSettingRepo{rows: map[string]string{}}, nil, nil, 0, 0)
	ctx := context.Background()

	v, err := svc.Get(ctx, "ENABLE_REGISTRATION", false)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = svc.Get(ctx, "MOTD", false)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	v, err = svc.Get(ctx, "MOTD", true)
	require.NoError(t, err)
	assert.Contains(t, v, "Welcome")

	_, err = svc.Get(ctx, "NOPE", true)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSettingServiceSetValidatesType(t *testing.T) {
	repo := &mockSettingRepo{rows: map[string]string{}}
	svc := NewSettingService(repo, nil, nil, 0, 0)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Set(ctx, "MIN_PASSWORD_LENGTH", "ten"), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, "MIN_PASSWORD_LENGTH", 10.5), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, "ENABLE_REGISTRATION", "false"), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, "MOTD", 3.0), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, "REFRESH_TOKEN_EXPIRY_DURATION", "soon"), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, "NOPE", "x"), appErrors.ErrNotFound)
	assert.Empty(t, repo.rows)

	require.NoError(t, svc.Set(ctx, "MIN_PASSWORD_LENGTH", 10.0))
	require.NoError(t, svc.Set(ctx, "ENABLE_REGISTRATION", false))
	require.NoError(t, svc.Set(ctx, "REFRESH_TOKEN_EXPIRY_DURATION", "2w"))

	assert.Equal(t, 10, svc.MinPasswordLength(ctx))
	assert.False(t, svc.RegistrationEnabled(ctx))
	assert.Equal(t, 14*24*time.Hour, svc.RefreshTokenTTL(ctx))
}

func TestSettingServiceCachesAndInvalidates(t *testing.T) {
	repo := &mockSettingRepo{rows: map[string]string{}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewSettingService(repo, cache, nil, time.Minute, 0)
	ctx := context.Background()

	assert.True(t, svc.RegistrationEnabled(ctx))
	assert.True(t, svc.RegistrationEnabled(ctx))
	assert.Equal(t, 1, repo.gets)

	require.NoError(t, svc.Set(ctx, "ENABLE_REGISTRATION", false))
	assert.False(t, svc.RegistrationEnabled(ctx))
	assert.Equal(t, 2, repo.gets)
}

func TestSettingServiceFallbacksOnStoreFailure(t *testing.T) {
	svc := NewSettingService(&mockSettingRepo{rows: map[string]string{}, fails: true}, nil, nil, 0, 48*time.Hour)
	ctx := context.Background()

	assert.True(t, svc.RegistrationEnabled(ctx))
	assert.Equal(t, 8, svc.MinPasswordLength(ctx))
	assert.Equal(t, 48*time.Hour, svc.RefreshTokenTTL(ctx))
}
