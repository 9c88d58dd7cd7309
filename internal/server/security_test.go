package server

import (
	"net/http"
	"testing"

	"inkpress/internal/cache"
	"inkpress/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/v1/does-not-exist", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Contains(t, body.Detail, "Cannot GET")
}

func TestReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "unconfigured", body.Checks["redis"])
	assert.Equal(t, "healthy", body.Checks["storage"])
	assert.Equal(t, cache.BackendMemory, body.Checks["revocation_backend"])

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp = env.do(http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body = decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, resp)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unhealthy", body.Checks["database"])
}
