package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthBody struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func TestHealthReportsComponents(t *testing.T) {
	ok := HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("connection refused") }}

	h := NewMetricsHandler(nil, ok)
	c, rec := newTestContext(http.MethodGet, "/api/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Components["postgres"])

	h = NewMetricsHandler(nil, ok, down)
	c, rec = newTestContext(http.MethodGet, "/api/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "connection refused", body.Components["redis"])
}

func TestPrometheusWithoutMetrics(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(nil).Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
