package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

// ErrorBody is the payload nested under the "error" key.
type ErrorBody struct {
	Type    string      `json:"type"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Trace   []string    `json:"trace,omitempty"`
}

// Envelope represents the failure contract shared by every endpoint.
type Envelope struct {
	Error ErrorBody `json:"error"`
}

// Success is the body returned by mutation endpoints with nothing else to say.
type Success struct {
	Success bool `json:"success"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// OK responds with HTTP 200 and the payload as-is.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Done responds with {"success": true}.
func Done(c *gin.Context) {
	JSON(c, http.StatusOK, Success{Success: true})
}

// Build converts any error into the envelope. The cause chain is only
// exposed outside release mode.
func Build(err error) (int, Envelope) {
	appErr := appErrors.FromError(err)
	body := ErrorBody{
		Type:    appErr.Type,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if gin.Mode() != gin.ReleaseMode {
		body.Trace = appErrors.Trace(appErr)
	}
	return appErr.Code, Envelope{Error: body}
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	status, envelope := Build(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, envelope)
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Line encodes v as a single NDJSON line.
func Line(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		_, envelope := Build(err)
		raw, _ = json.Marshal(envelope)
	}
	return append(raw, '\n')
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
