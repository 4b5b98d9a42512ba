package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/repository"
	"github.com/yar-app/yar-api/pkg/keys"
)

var (
	testKeyOnce sync.Once
	testKeyPair *keys.KeyPair
	testKeyErr  error
)

func testKeys(t *testing.T) *keys.KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		testKeyPair, testKeyErr = keys.Generate()
	})
	require.NoError(t, testKeyErr)
	return testKeyPair
}

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	createErr error
	updateErr error
	deleted   []models.Media
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrConflict
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) SetTotpSecret(ctx context.Context, id string, secret *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.TotpSecret = secret
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, username string, passwordHash *string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Username = username
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) ([]models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.users, id)
	return m.deleted, nil
}

// mockSessionRepo is an in-memory refresh token store.
type mockSessionRepo struct {
	mu      sync.Mutex
	records map[string]*models.RefreshToken
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{records: map[string]*models.RefreshToken{}}
}

func (m *mockSessionRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = uuid.NewString()
	copied := *token
	m.records[token.ID] = &copied
	return nil
}

func (m *mockSessionRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.Token == token {
			copied := *r
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *r
	return &copied, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return 0, nil
	}
	delete(m.records, id)
	return 1, nil
}

func (m *mockSessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if r.UserID == userID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *mockSessionRepo) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RefreshToken
	for _, r := range m.records {
		if r.UserID == userID && r.ExpiresAt.After(now) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockSessionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type staticPolicy struct {
	registration bool
	minLength    int
	refreshTTL   time.Duration
}

func (p staticPolicy) RegistrationEnabled(ctx context.Context) bool { return p.registration }

func (p staticPolicy) MinPasswordLength(ctx context.Context) int { return p.minLength }

func (p staticPolicy) RefreshTokenTTL(ctx context.Context) time.Duration {
	if p.refreshTTL == 0 {
		return 7 * 24 * time.Hour
	}
	return p.refreshTTL
}

type recordingRemover struct {
	removed []models.Media
}

func (r *recordingRemover) RemoveFiles(media []models.Media) {
	r.removed = append(r.removed, media...)
}
