package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
)

// TokenVerifier checks a signed token of an expected type.
type TokenVerifier interface {
	Verify(raw string, expected models.TokenType) (*models.TokenClaims, error)
}

// MediaToken requires a ?token= media token issued for the :id path param.
func MediaToken(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrInvalidCredentials, "media token missing"))
			return
		}
		claims, err := tokens.Verify(raw, models.TokenMedia)
		if err != nil || claims.MediaID == "" || claims.MediaID != c.Param("id") {
			response.Abort(c, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid media token"))
			return
		}
		c.Next()
	}
}
