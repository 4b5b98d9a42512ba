package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/middleware"
	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, rec
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func withUser(c *gin.Context, user *models.User) {
	c.Set(middleware.ContextUserKey, user)
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

var (
	testAdmin = &models.User{ID: "admin-1", Username: "root", Roles: []models.Role{models.RoleAdmin, models.RoleUser}}
	testUser  = &models.User{ID: "user-1", Username: "alice", Roles: []models.Role{models.RoleUser}}
)
