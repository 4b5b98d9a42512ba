package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
)

// ValidateJSON decodes the body into T and checks its validate tags,
// aborting with 400 on failure. The body stays cached on the context so the
// handler can bind it again.
func ValidateJSON[T any](validate *validator.Validate, message string) gin.HandlerFunc {
	if validate == nil {
		validate = validator.New()
	}
	return func(c *gin.Context) {
		var req T
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err == nil {
			err = validate.Struct(req)
		}
		if err != nil {
			response.Abort(c, appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, message))
			return
		}
		c.Next()
	}
}
