package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/service"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
	"github.com/yar-app/yar-api/pkg/response"
	"github.com/yar-app/yar-api/pkg/ytdlp"
)

type uploadServiceMock struct {
	checkErr  error
	force     bool
	progress  []ytdlp.Progress
	importErr error
	imported  bool
	parts     [][]byte
	cancelled string
}

func (m *uploadServiceMock) Info(ctx context.Context, req models.UploadInfoRequest) (*ytdlp.VideoInfo, error) {
	if req.URL == "bad" {
		return nil, appErrors.ErrInvalidURL
	}
	return &ytdlp.VideoInfo{ID: "abc", Title: "Remote", Ext: "webm"}, nil
}

func (m *uploadServiceMock) CheckImport(ctx context.Context, req models.UploadURLRequest, force bool) error {
	m.force = force
	return m.checkErr
}

func (m *uploadServiceMock) ImportURL(ctx context.Context, user *models.User, req models.UploadURLRequest, sink service.ProgressSink) (*models.VideoView, error) {
	m.imported = true
	for _, p := range m.progress {
		if err := sink(p); err != nil {
			return nil, err
		}
	}
	if m.importErr != nil {
		return nil, m.importErr
	}
	return &models.VideoView{ID: "v1", Title: req.Title, Tags: req.Tags}, nil
}

func (m *uploadServiceMock) CreateFile(ctx context.Context, req models.UploadFileRequest) (*models.MediaView, error) {
	return &models.MediaView{ID: "m1", Type: models.MediaVideo, Processing: true}, nil
}

func (m *uploadServiceMock) AppendPart(ctx context.Context, id string, body io.Reader) error {
	if id != "m1" {
		return appErrors.ErrMediaNotFound
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.parts = append(m.parts, raw)
	return nil
}

func (m *uploadServiceMock) Complete(ctx context.Context, user *models.User, id string, req models.UploadFileRequest) (*models.VideoView, error) {
	if id != "m1" {
		return nil, appErrors.ErrMediaNotProcessing
	}
	return &models.VideoView{ID: "v2", Title: req.Title, Tags: req.Tags}, nil
}

func (m *uploadServiceMock) Cancel(ctx context.Context, id string) error {
	m.cancelled = id
	return nil
}

var importPayload = models.UploadURLRequest{
	URL:   "https://cdn.example/video.webm",
	Input: "https://example.com/watch?v=1",
	Title: "Imported",
	Tags:  []string{"music"},
}

func readLines(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestUploadHandlerInfo(t *testing.T) {
	handler := NewUploadHandler(&uploadServiceMock{}, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/info", jsonBody(t, models.UploadInfoRequest{URL: "https://example.com"}))
	withUser(c, testUser)
	handler.Info(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"title":"Remote"`)

	c, rec = newTestContext(http.MethodPost, "/upload/info", jsonBody(t, models.UploadInfoRequest{URL: "bad"}))
	withUser(c, testUser)
	handler.Info(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_URL", errorBody(t, rec).Type)
}

func TestUploadHandlerImportStreamsProgress(t *testing.T) {
	svc := &uploadServiceMock{progress: []ytdlp.Progress{{Percent: 12.5}, {Percent: 100}}}
	handler := NewUploadHandler(svc, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/url?force=true", jsonBody(t, importPayload))
	withUser(c, testUser)
	handler.ImportURL(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.force)
	assert.Equal(t, ndjsonContentType, rec.Header().Get("Content-Type"))

	lines := readLines(t, rec.Body.String())
	require.Len(t, lines, 3)
	assert.Equal(t, 12.5, lines[0]["percent"])
	assert.Equal(t, float64(100), lines[1]["percent"])
	assert.Equal(t, true, lines[2]["success"])
	video := lines[2]["video"].(map[string]interface{})
	assert.Equal(t, "Imported", video["title"])
}

func TestUploadHandlerImportDuplicate(t *testing.T) {
	svc := &uploadServiceMock{checkErr: appErrors.Clone(appErrors.ErrMediaAlreadyExists, "video already exists")}
	handler := NewUploadHandler(svc, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/url", jsonBody(t, importPayload))
	withUser(c, testUser)
	handler.ImportURL(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, svc.force)
	assert.False(t, svc.imported)
	assert.Equal(t, "MEDIA_ALREADY_EXISTS", errorBody(t, rec).Type)
}

func TestUploadHandlerImportFailsBeforeStreaming(t *testing.T) {
	svc := &uploadServiceMock{importErr: appErrors.ErrInvalidURL}
	handler := NewUploadHandler(svc, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/url", jsonBody(t, importPayload))
	withUser(c, testUser)
	handler.ImportURL(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_URL", errorBody(t, rec).Type)
}

func TestUploadHandlerImportFailsAfterStreaming(t *testing.T) {
	failure := appErrors.WithDetails(
		appErrors.Wrap(errors.New("exit status 1"), appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to upload video"),
		map[string]string{"videoUpload": "HTTP Error 403"},
	)
	svc := &uploadServiceMock{progress: []ytdlp.Progress{{Percent: 40}}, importErr: failure}
	handler := NewUploadHandler(svc, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/url", jsonBody(t, importPayload))
	withUser(c, testUser)
	handler.ImportURL(c)

	// the status line was already sent with the first progress line
	assert.Equal(t, http.StatusOK, rec.Code)
	raw := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, raw, 2)

	var env response.Envelope
	require.NoError(t, json.Unmarshal([]byte(raw[1]), &env))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Type)
	assert.Equal(t, http.StatusInternalServerError, env.Error.Code)
	assert.Equal(t, map[string]interface{}{"videoUpload": "HTTP Error 403"}, env.Error.Details)
}

func TestUploadHandlerChunkedUpload(t *testing.T) {
	svc := &uploadServiceMock{}
	handler := NewUploadHandler(svc, 8, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/file", jsonBody(t, models.UploadFileRequest{Ext: "mp4", Title: "Clip", Tags: []string{}}))
	withUser(c, testUser)
	handler.CreateFile(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processing":true`)

	c, rec = newTestContext(http.MethodPost, "/upload/file/m1/part", bytes.NewReader([]byte("12345678")))
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	withUser(c, testUser)
	handler.AppendPart(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.parts, 1)
	assert.Equal(t, "12345678", string(svc.parts[0]))

	c, rec = newTestContext(http.MethodPost, "/upload/file/m1/complete", jsonBody(t, models.UploadFileRequest{Ext: "mp4", Title: "Clip", Tags: []string{"a"}}))
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	withUser(c, testUser)
	handler.Complete(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"v2"`)

	c, rec = newTestContext(http.MethodPost, "/upload/file/m1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	withUser(c, testUser)
	handler.Cancel(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m1", svc.cancelled)
}

func TestUploadHandlerRejectsOversizedPart(t *testing.T) {
	svc := &uploadServiceMock{}
	handler := NewUploadHandler(svc, 8, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/file/m1/part", bytes.NewReader([]byte("123456789")))
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	withUser(c, testUser)
	handler.AppendPart(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorBody(t, rec).Type)

	// chunked bodies carry no length up front
	c, rec = newTestContext(http.MethodPost, "/upload/file/m1/part", bytes.NewReader([]byte("123456789")))
	c.Request.ContentLength = -1
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	withUser(c, testUser)
	handler.AppendPart(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.parts)
}

func TestUploadHandlerPartUnknownMedia(t *testing.T) {
	handler := NewUploadHandler(&uploadServiceMock{}, 8, nil)

	c, rec := newTestContext(http.MethodPost, "/upload/file/zz/part", bytes.NewReader([]byte("1")))
	c.Params = gin.Params{{Key: "id", Value: "zz"}}
	withUser(c, testUser)
	handler.AppendPart(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MEDIA_NOT_FOUND", errorBody(t, rec).Type)
}
