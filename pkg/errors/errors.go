package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed API failure. Type is the machine readable kind sent to
// clients, Code the HTTP status it maps to.
type Error struct {
	Type    string      `json:"type"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind so callers can use errors.Is against
// the predefined values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// New creates a new Error instance.
func New(kind string, code int, message string) *Error {
	return &Error{Type: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a new Error.
func Wrap(err error, kind string, code int, message string) *Error {
	return &Error{Type: kind, Code: code, Message: message, Err: err}
}

// Predefined errors for every failure kind exposed by the API.
var (
	ErrUnknown                 = New("UNKNOWN", http.StatusInternalServerError, "an unknown error occurred")
	ErrInvalidCredentials      = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrTotpRequired            = New("TOTP_REQUIRED", http.StatusUnauthorized, "totp code required")
	ErrTotpInvalid             = New("TOTP_INVALID", http.StatusUnauthorized, "invalid totp code")
	ErrMediaNotFound           = New("MEDIA_NOT_FOUND", http.StatusNotFound, "media not found")
	ErrInvalidURL              = New("INVALID_URL", http.StatusBadRequest, "invalid url")
	ErrInternal                = New("INTERNAL_SERVER_ERROR", http.StatusInternalServerError, "internal server error")
	ErrMediaNotProcessing      = New("MEDIA_NOT_PROCESSING", http.StatusBadRequest, "media not processing")
	ErrUnauthorized            = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInvalidMedia            = New("INVALID_MEDIA", http.StatusBadRequest, "invalid media")
	ErrAccessTokenExpired      = New("ACCESS_TOKEN_EXPIRED", http.StatusUnauthorized, "access token expired")
	ErrInsufficientPermissions = New("INSUFFICIENT_PERMISSIONS", http.StatusForbidden, "insufficient permissions")
	ErrNotFound                = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUsernameTaken           = New("USERNAME_TAKEN", http.StatusConflict, "username already taken")
	ErrMediaAlreadyExists      = New("MEDIA_ALREADY_EXISTS", http.StatusConflict, "media already exists")
	ErrValidation              = New("INVALID_REQUEST", http.StatusBadRequest, "invalid request")
	ErrTooManyRequests         = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests")
)

// ErrCacheMiss is returned by cache backends when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error. Unknown failures become
// UNKNOWN with a 500 status.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrUnknown.Type, ErrUnknown.Code, ErrUnknown.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying diagnostic details.
func WithDetails(err *Error, details interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}

// Trace flattens the cause chain into one string per wrapped error.
func Trace(err error) []string {
	var trace []string
	for cur := errors.Unwrap(err); cur != nil; cur = errors.Unwrap(cur) {
		trace = append(trace, cur.Error())
	}
	return trace
}
