package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/repository"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.User) error
	SetTotpSecret(ctx context.Context, id string, secret *string) error
}

type authSessionRepository interface {
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
}

type registrationPolicy interface {
	RegistrationEnabled(ctx context.Context) bool
	MinPasswordLength(ctx context.Context) int
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TOTPSkew   uint
	BcryptCost int
	Issuer     string
}

// AuthService provides authentication use cases.
type AuthService struct {
	users     authUserRepository
	sessions  authSessionRepository
	tokens    *TokenService
	policy    registrationPolicy
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions authSessionRepository, tokens *TokenService, policy registrationPolicy, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.Issuer == "" {
		config.Issuer = "YAR"
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		policy:    policy,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Login authenticates a user and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (pair *models.TokenPair, err error) {
	defer func() { s.metrics.RecordAuthAttempt("login", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid login payload")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if user.TotpEnabled() {
		if req.TotpCode == "" {
			return nil, appErrors.ErrTotpRequired
		}
		if !s.validTotp(req.TotpCode, *user.TotpSecret) {
			return nil, appErrors.ErrTotpInvalid
		}
	}

	return s.issue(ctx, user.ID, req.UserAgent, req.DeviceType)
}

// Register creates an account and signs the new user in. The first account
// of an instance becomes an administrator.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (pair *models.TokenPair, err error) {
	defer func() { s.metrics.RecordAuthAttempt("register", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid register payload")
	}

	if !s.policy.RegistrationEnabled(ctx) {
		return nil, appErrors.Clone(appErrors.ErrInsufficientPermissions, "registration is disabled")
	}
	if len(req.Password) < s.policy.MinPasswordLength(ctx) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is too short")
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to fetch user")
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to count users")
	}
	roles := []models.Role{models.RoleUser}
	if total == 0 {
		roles = []models.Role{models.RoleAdmin, models.RoleUser}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to hash password")
	}

	user := &models.User{Username: req.Username, PasswordHash: string(hash), Roles: roles}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, appErrors.ErrUsernameTaken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to create user")
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.Bool("admin", total == 0))

	return s.issue(ctx, user.ID, req.UserAgent, req.DeviceType)
}

// Refresh rotates a refresh token: the presented session is consumed and a
// new pair with the same device type is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userAgent string) (pair *models.TokenPair, err error) {
	defer func() { s.metrics.RecordAuthAttempt("refresh", err) }()

	record, err := s.ResolveSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	affected, err := s.sessions.DeleteByID(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to consume refresh token")
	}
	if affected != 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "refresh token already used")
	}

	return s.issue(ctx, record.UserID, userAgent, record.DeviceType)
}

// Logout deletes the session behind refreshToken when it resolves to one.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	record, err := s.ResolveSession(ctx, refreshToken)
	if err != nil {
		return nil
	}
	if _, err := s.sessions.DeleteByID(ctx, record.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to revoke session")
	}
	return nil
}

// ResolveSession returns the live store record behind a refresh JWT. The
// token must verify, its record must exist, be unexpired and belong to the
// token's subject.
func (s *AuthService) ResolveSession(ctx context.Context, refreshToken string) (*models.RefreshToken, error) {
	if refreshToken == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "refresh cookie missing")
	}
	claims, err := s.tokens.Verify(refreshToken, models.TokenRefresh)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Type, appErrors.ErrInvalidCredentials.Code, "invalid refresh token")
	}

	record, err := s.sessions.FindByToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid refresh token")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to fetch refresh token")
	}
	if record.Expired(s.now()) || record.UserID != claims.Subject {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid refresh token")
	}
	return record, nil
}

// Authenticate resolves a bearer access token into its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Verify(accessToken, models.TokenAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, appErrors.ErrAccessTokenExpired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Type, appErrors.ErrInvalidCredentials.Code, "invalid access token")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid access token")
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "failed to find user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load user")
	}
	return user, nil
}

// GenerateTotp creates a new secret for the user to confirm with EnrollTotp.
func (s *AuthService) GenerateTotp(user *models.User) (*models.TotpSecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.config.Issuer,
		AccountName: user.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to generate totp secret")
	}
	return &models.TotpSecret{Secret: key.Secret(), URL: key.URL()}, nil
}

// EnrollTotp stores secret as the user's second factor once a code verifies.
func (s *AuthService) EnrollTotp(ctx context.Context, user *models.User, req models.TotpEnrollRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid totp payload")
	}
	if user.TotpEnabled() {
		return appErrors.Clone(appErrors.ErrInsufficientPermissions, "totp already enabled")
	}
	if !s.validTotp(req.VerifyCode, req.Secret) {
		return appErrors.ErrTotpInvalid
	}
	secret := req.Secret
	if err := s.users.SetTotpSecret(ctx, user.ID, &secret); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to enable totp")
	}
	return nil
}

// DisenrollTotp removes the user's second factor.
func (s *AuthService) DisenrollTotp(ctx context.Context, user *models.User) error {
	if !user.TotpEnabled() {
		return appErrors.Clone(appErrors.ErrInsufficientPermissions, "totp not enabled")
	}
	if err := s.users.SetTotpSecret(ctx, user.ID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to disable totp")
	}
	return nil
}

func (s *AuthService) validTotp(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      s.config.TOTPSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *AuthService) issue(ctx context.Context, userID, userAgent string, deviceType models.DeviceType) (*models.TokenPair, error) {
	refresh, err := s.tokens.IssueRefreshToken(ctx, userID, userAgent, deviceType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to create refresh token")
	}
	access, err := s.tokens.AccessToken(userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to create access token")
	}
	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh.Token,
		RefreshExpiresIn: int(refresh.TTL.Seconds()),
	}, nil
}
