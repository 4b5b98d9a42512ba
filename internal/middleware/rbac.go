package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
)

// RequireRoles admits users holding at least one of roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !user.HasRole(roles...) {
			response.Abort(c, appErrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}
