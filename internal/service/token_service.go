package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mssola/useragent"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/keys"
)

var (
	// ErrTokenExpired is returned by Verify for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed tokens and type mismatches.
	ErrTokenInvalid = errors.New("token invalid")
)

type refreshTokenWriter interface {
	Create(ctx context.Context, token *models.RefreshToken) error
}

type refreshTTLSource interface {
	RefreshTokenTTL(ctx context.Context) time.Duration
}

// TokenConfig defines token lifetimes.
type TokenConfig struct {
	AccessTokenTTL time.Duration
	MediaTokenTTL  time.Duration
}

// SignOptions are the registered claims set on a new token.
type SignOptions struct {
	ExpiresIn time.Duration
	Subject   string
	ID        string
	MediaID   string
}

// IssuedRefreshToken is a signed refresh JWT together with its store record.
type IssuedRefreshToken struct {
	Token  string
	Record *models.RefreshToken
	TTL    time.Duration
}

// TokenService signs and verifies RS256 tokens and issues refresh sessions.
type TokenService struct {
	keys   *keys.KeyPair
	store  refreshTokenWriter
	ttl    refreshTTLSource
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a token service around a loaded key pair.
func NewTokenService(pair *keys.KeyPair, store refreshTokenWriter, ttl refreshTTLSource, config TokenConfig) *TokenService {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = 15 * time.Minute
	}
	if config.MediaTokenTTL <= 0 {
		config.MediaTokenTTL = 24 * time.Hour
	}
	return &TokenService{keys: pair, store: store, ttl: ttl, config: config, now: time.Now}
}

// Sign mints a token of the given type.
func (s *TokenService) Sign(tokenType models.TokenType, opts SignOptions) (string, error) {
	now := s.now()
	claims := models.TokenClaims{
		Type:    tokenType,
		MediaID: opts.MediaID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  opts.Subject,
			ID:       opts.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if opts.ExpiresIn > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(opts.ExpiresIn))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.keys.Private)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and that the token is of the expected type.
func (s *TokenService) Verify(raw string, expected models.TokenType) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.keys.Public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Type != expected {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, expected, claims.Type)
	}
	return claims, nil
}

// AccessToken signs a short lived access token for userID.
func (s *TokenService) AccessToken(userID string) (string, error) {
	return s.Sign(models.TokenAccess, SignOptions{ExpiresIn: s.config.AccessTokenTTL, Subject: userID})
}

// MediaToken signs a token granting read access to a single media file.
func (s *TokenService) MediaToken(mediaID string) (string, error) {
	return s.Sign(models.TokenMedia, SignOptions{ExpiresIn: s.config.MediaTokenTTL, MediaID: mediaID})
}

// RefreshTTL resolves the current refresh token lifetime.
func (s *TokenService) RefreshTTL(ctx context.Context) time.Duration {
	return s.ttl.RefreshTokenTTL(ctx)
}

// IssueRefreshToken stores a new session for userID and signs a refresh JWT
// whose jti is the session's opaque token.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID, userAgent string, deviceType models.DeviceType) (*IssuedRefreshToken, error) {
	opaque, err := randomToken(24)
	if err != nil {
		return nil, err
	}
	if deviceType == "" {
		deviceType = models.DeviceDesktop
	}

	ttl := s.RefreshTTL(ctx)
	now := s.now().UTC()
	record := &models.RefreshToken{
		UserID:     userID,
		Token:      opaque,
		DeviceName: DeviceName(userAgent),
		DeviceType: deviceType,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}

	signed, err := s.Sign(models.TokenRefresh, SignOptions{ExpiresIn: ttl, Subject: userID, ID: opaque})
	if err != nil {
		return nil, err
	}
	return &IssuedRefreshToken{Token: signed, Record: record, TTL: ttl}, nil
}

// DeviceName renders "<browser> <version> (<os> <version>)" for a user agent.
func DeviceName(userAgent string) string {
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	osInfo := ua.OSInfo()
	return fmt.Sprintf("%s %s (%s %s)", browser, version, osInfo.Name, osInfo.Version)
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
