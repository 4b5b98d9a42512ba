package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, userAgent string) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GenerateTotp(user *models.User) (*models.TotpSecret, error)
	EnrollTotp(ctx context.Context, user *models.User, req models.TotpEnrollRequest) error
	DisenrollTotp(ctx context.Context, user *models.User) error
}

// CookieConfig describes the refresh token cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler exposes login, registration and token rotation.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(service authService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "refreshToken"
	}
	return &AuthHandler{service: service, cookie: cookie}
}

// Login godoc
// @Summary Login
// @Description Authenticate with username and password (and TOTP code when enrolled). The refresh token is set as an HttpOnly cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.UserAgent = c.GetHeader("User-Agent")

	pair, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setRefreshCookie(c, pair)
	response.OK(c, pair)
}

// Register godoc
// @Summary Register
// @Description Create an account. The first account becomes an administrator.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Account"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	req.UserAgent = c.GetHeader("User-Agent")

	pair, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setRefreshCookie(c, pair)
	response.OK(c, pair)
}

// Refresh godoc
// @Summary Rotate refresh token
// @Description Consumes the refresh cookie and issues a new token pair.
// @Tags Auth
// @Produce json
// @Success 200 {object} models.TokenPair
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	pair, err := h.service.Refresh(c.Request.Context(), h.refreshToken(c), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setRefreshCookie(c, pair)
	response.OK(c, pair)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the session behind the refresh cookie and clears it.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Success
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.service.Logout(c.Request.Context(), h.refreshToken(c))
	h.clearRefreshCookie(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

// GenerateTotp godoc
// @Summary Generate TOTP secret
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.TotpSecret
// @Router /auth/totp/generate [get]
func (h *AuthHandler) GenerateTotp(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	secret, err := h.service.GenerateTotp(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, secret)
}

// EnrollTotp godoc
// @Summary Enroll TOTP
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.TotpEnrollRequest true "Secret and verification code"
// @Success 200 {object} response.Success
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/totp [post]
func (h *AuthHandler) EnrollTotp(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.TotpEnrollRequest
	if !bindJSON(c, &req, "invalid totp payload") {
		return
	}
	if err := h.service.EnrollTotp(c.Request.Context(), user, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

// DisenrollTotp godoc
// @Summary Remove TOTP
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Success
// @Failure 403 {object} response.Envelope
// @Router /auth/totp [delete]
func (h *AuthHandler) DisenrollTotp(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DisenrollTotp(c.Request.Context(), user); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

func (h *AuthHandler) refreshToken(c *gin.Context) string {
	value, err := c.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return value
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, pair *models.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, pair.RefreshToken, pair.RefreshExpiresIn, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
