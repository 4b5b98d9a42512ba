package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/service"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

type mediaServiceMock struct {
	path string
}

func (m *mediaServiceMock) Open(ctx context.Context, id string) (*service.MediaFile, error) {
	if id != "m1" {
		return nil, appErrors.ErrMediaNotFound
	}
	file, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return &service.MediaFile{
		Media: &models.Media{ID: "m1", Extension: "mp4", MimeType: "video/mp4"},
		File:  file,
		Size:  info.Size(),
	}, nil
}

func newMediaHandlerForTest(t *testing.T) *MediaHandler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "m1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	return NewMediaHandler(&mediaServiceMock{path: path}, nil)
}

func streamMedia(handler *MediaHandler, id, rangeHeader string) (*gin.Context, int, http.Header, string) {
	c, rec := newTestContext(http.MethodGet, "/media/"+id, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}
	if rangeHeader != "" {
		c.Request.Header.Set("Range", rangeHeader)
	}
	handler.Stream(c)
	c.Writer.WriteHeaderNow()
	return c, rec.Code, rec.Header(), rec.Body.String()
}

func TestMediaHandlerStreamsWholeFileWithoutRange(t *testing.T) {
	handler := newMediaHandlerForTest(t)

	_, code, header, body := streamMedia(handler, "m1", "")

	assert.Equal(t, http.StatusPartialContent, code)
	assert.Equal(t, "0123456789", body)
	assert.Equal(t, "video/mp4", header.Get("Content-Type"))
	assert.Equal(t, "10", header.Get("Content-Length"))
	assert.Equal(t, "bytes 0-9/10", header.Get("Content-Range"))
	assert.Equal(t, "bytes", header.Get("Accept-Ranges"))
}

func TestMediaHandlerStreamsRange(t *testing.T) {
	handler := newMediaHandlerForTest(t)

	_, code, header, body := streamMedia(handler, "m1", "bytes=2-5")
	assert.Equal(t, http.StatusPartialContent, code)
	assert.Equal(t, "2345", body)
	assert.Equal(t, "bytes 2-5/10", header.Get("Content-Range"))

	_, code, header, body = streamMedia(handler, "m1", "bytes=0-3,2-6")
	assert.Equal(t, http.StatusPartialContent, code)
	assert.Equal(t, "0123456", body)
	assert.Equal(t, "7", header.Get("Content-Length"))
}

func TestMediaHandlerRejectsUnsatisfiableRanges(t *testing.T) {
	handler := newMediaHandlerForTest(t)

	for _, rng := range []string{"bytes=20-30", "items=0-1", "bytes=0-1,5-6", "bytes=abc"} {
		_, code, header, _ := streamMedia(handler, "m1", rng)
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, code, rng)
		assert.Equal(t, "bytes */10", header.Get("Content-Range"), rng)
	}
}

func TestMediaHandlerUnknownMedia(t *testing.T) {
	handler := newMediaHandlerForTest(t)

	c, rec := newTestContext(http.MethodGet, "/media/zzz", nil)
	c.Params = gin.Params{{Key: "id", Value: "zzz"}}
	handler.Stream(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MEDIA_NOT_FOUND", errorBody(t, rec).Type)
}
