package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.RefreshToken, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) error
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error)
}

type sessionResolver interface {
	ResolveSession(ctx context.Context, refreshToken string) (*models.RefreshToken, error)
}

// SessionService lists and revokes a user's login sessions.
type SessionService struct {
	repo     sessionRepository
	resolver sessionResolver
	now      func() time.Time
}

// NewSessionService constructs a session service.
func NewSessionService(repo sessionRepository, resolver sessionResolver) *SessionService {
	return &SessionService{repo: repo, resolver: resolver, now: time.Now}
}

// List returns the caller's active sessions, marking the one behind
// refreshToken as current.
func (s *SessionService) List(ctx context.Context, user *models.User, refreshToken string) ([]models.Session, error) {
	current, err := s.resolver.ResolveSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListActiveByUser(ctx, user.ID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to list sessions")
	}

	sessions := make([]models.Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, models.Session{
			ID:         record.ID,
			DeviceName: record.DeviceName,
			DeviceType: record.DeviceType,
			CreatedAt:  record.CreatedAt,
			Current:    record.ID == current.ID,
		})
	}
	return sessions, nil
}

// Revoke deletes one of the caller's sessions.
func (s *SessionService) Revoke(ctx context.Context, user *models.User, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid session id")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to fetch session")
	}
	if record.UserID != user.ID {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid session id")
	}
	if _, err := s.repo.DeleteByID(ctx, record.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to revoke session")
	}
	return nil
}

// RevokeAll deletes every session of the caller.
func (s *SessionService) RevokeAll(ctx context.Context, user *models.User) error {
	if err := s.repo.DeleteAllForUser(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to revoke sessions")
	}
	return nil
}
