package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/repository"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, username string, passwordHash *string) error
	Delete(ctx context.Context, id string) ([]models.Media, error)
}

type sessionRevoker interface {
	DeleteAllForUser(ctx context.Context, userID string) error
}

type mediaFileRemover interface {
	RemoveFiles(media []models.Media)
}

// UserService manages profiles and accounts.
type UserService struct {
	repo       userRepository
	sessions   sessionRevoker
	files      mediaFileRemover
	policy     registrationPolicy
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService constructs a user service.
func NewUserService(repo userRepository, sessions sessionRevoker, files mediaFileRemover, policy registrationPolicy, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, sessions: sessions, files: files, policy: policy, validator: validate, logger: logger, bcryptCost: bcryptCost}
}

// Profile returns the caller's own view.
func (s *UserService) Profile(user *models.User) models.ProfileView {
	return models.ProfileView{UserView: user.View(), TotpEnabled: user.TotpEnabled()}
}

// UpdateProfile renames the caller and optionally changes their password.
// A password change signs the user out everywhere.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest) (*models.UserView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid profile payload")
	}
	if (req.OldPassword == "") != (req.NewPassword == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "oldPassword and newPassword must be provided together")
	}

	var passwordHash *string
	if req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			return nil, appErrors.ErrInvalidCredentials
		}
		if len(req.NewPassword) < s.policy.MinPasswordLength(ctx) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "password is too short")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to hash password")
		}
		hashed := string(hash)
		passwordHash = &hashed
	}

	if err := s.repo.UpdateProfile(ctx, user.ID, req.Username, passwordHash); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, appErrors.ErrUsernameTaken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to update profile")
	}

	if passwordHash != nil {
		if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke sessions after password change", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	updated := *user
	updated.Username = req.Username
	view := updated.View()
	return &view, nil
}

// List returns every account, newest first.
func (s *UserService) List(ctx context.Context) ([]models.UserView, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to list users")
	}
	views := make([]models.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views, nil
}

// Delete removes another user's account together with everything they own.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id string) error {
	if actor.ID == id {
		return appErrors.Clone(appErrors.ErrInsufficientPermissions, "cannot delete yourself")
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to delete user")
	}
	s.files.RemoveFiles(removed)
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actor.ID), zap.Int("media_removed", len(removed)))
	return nil
}
