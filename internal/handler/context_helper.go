package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yar-app/yar-api/internal/middleware"
	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
)

// userFromContext returns the authenticated user or writes 401 and reports
// false. Routes behind middleware.Authenticate never hit the failure path.
func userFromContext(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

// bindJSON decodes the request body into dest. The body is cached so a
// validating middleware ahead of the handler may have read it already.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindBodyWith(dest, binding.JSON); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, message))
		return false
	}
	return true
}
