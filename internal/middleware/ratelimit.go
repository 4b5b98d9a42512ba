package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/service"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/ratelimit"
	"github.com/yar-app/yar-api/pkg/response"
)

// RateLimit rejects clients exceeding limiter's window with 429 and a
// Retry-After header. Clients are keyed by IP; a request without one gets
// a random identifier and is therefore never limited.
func RateLimit(limiter *ratelimit.Limiter, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id := c.ClientIP()
		if id == "" {
			id = uuid.NewString()
		}

		decision, err := limiter.Allow(c.Request.Context(), id)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("scope", limiter.Scope()), zap.Error(err))
		}
		if decision.Allowed {
			c.Next()
			return
		}

		metrics.RecordRateLimited(limiter.Scope())
		seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		response.Abort(c, appErrors.ErrTooManyRequests)
	}
}
