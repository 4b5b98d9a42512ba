package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates what a signed token may be used for.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	TokenMedia   TokenType = "media"
)

// TokenClaims is the JWT payload shared by every token type.
type TokenClaims struct {
	Type    TokenType `json:"type"`
	MediaID string    `json:"mediaId,omitempty"`
	jwt.RegisteredClaims
}

// DeviceType classifies the client a session was opened from.
type DeviceType string

const (
	DeviceDesktop DeviceType = "DESKTOP"
	DeviceMobile  DeviceType = "MOBILE"
	DeviceOther   DeviceType = "OTHER"
)

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Token      string     `db:"token" json:"-"`
	DeviceName string     `db:"device_name" json:"device_name"`
	DeviceType DeviceType `db:"device_type" json:"device_type"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Session is a refresh token as shown to its owner.
type Session struct {
	ID         string     `json:"id"`
	DeviceName string     `json:"device_name"`
	DeviceType DeviceType `json:"device_type"`
	CreatedAt  time.Time  `json:"created_at"`
	Current    bool       `json:"current"`
}
