package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/response"
)

type userService interface {
	Profile(user *models.User) models.ProfileView
	UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest) (*models.UserView, error)
	List(ctx context.Context) ([]models.UserView, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

// UserHandler manages accounts.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(service userService) *UserHandler {
	return &UserHandler{service: service}
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.ProfileView
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	response.OK(c, h.service.Profile(user))
}

// UpdateMe godoc
// @Summary Update current user
// @Description Changes the username and, when both passwords are given, the password. A password change revokes every session.
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} models.UserView
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	view, err := h.service.UpdateProfile(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// List godoc
// @Summary List users
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.UserView
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}

// Delete godoc
// @Summary Delete user
// @Description Deletes the account with its videos, media and sessions.
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Success
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := userFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c)
}
