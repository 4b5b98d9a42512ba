package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/response"
)

type sessionService interface {
	List(ctx context.Context, user *models.User, refreshToken string) ([]models.Session, error)
	Revoke(ctx context.Context, user *models.User, id string) error
	RevokeAll(ctx context.Context, user *models.User) error
}

// SessionHandler lists and revokes the caller's refresh token sessions.
type SessionHandler struct {
	service    sessionService
	cookieName string
}

// NewSessionHandler constructs a SessionHandler reading the refresh cookie named cookieName.
func NewSessionHandler(service sessionService, cookieName string) *SessionHandler {
	if cookieName == "" {
		cookieName = "refreshToken"
	}
	return &SessionHandler{service: service, cookieName: cookieName}
}

// List godoc
// @Summary List sessions
// @Description Active sessions of the caller, newest first. The session behind the refresh cookie is flagged as current.
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Session
// @Failure 401 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	token, _ := c.Cookie(h.cookieName)
	sessions, err := h.service.List(c.Request.Context(), user, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}

// Revoke godoc
// @Summary Revoke a session
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Success
// @Failure 401 {object} response.Envelope
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Revoke(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Revoke(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}

// RevokeAll godoc
// @Summary Revoke all sessions
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Success
// @Router /sessions [delete]
func (h *SessionHandler) RevokeAll(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	if err := h.service.RevokeAll(c.Request.Context(), user); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}
