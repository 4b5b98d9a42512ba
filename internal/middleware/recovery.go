package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
)

// Recovery turns panics into the INTERNAL_SERVER_ERROR envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		err := appErrors.Wrap(fmt.Errorf("panic: %v", recovered), appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, appErrors.ErrInternal.Message)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		response.Abort(c, err)
	})
}

// NotFound renders unmatched routes as NOT_FOUND.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	}
}
