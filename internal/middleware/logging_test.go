package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogOptions{Env: "production", Level: "info"}, &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(42))
	logger.InfoContext(ctx, "article created")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"user_id":42`)
	assert.Contains(t, out, `"msg":"article created"`)
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogOptions{Env: "development", Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_WithKeepsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogOptions{Env: "production"}, &buf).With(slog.String("component", "storage"))

	logger.InfoContext(context.WithValue(context.Background(), TraceIDKey, "abc123"), "object stored")

	assert.Contains(t, buf.String(), `"component":"storage"`)
	assert.Contains(t, buf.String(), `"trace_id":"abc123"`)
}

func TestStructuredLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger(LogOptions{Env: "production", Level: "debug"}, &buf)
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	for _, path := range []string{"/health/live", "/ok", "/missing", "/boom"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	out := buf.String()
	assert.NotContains(t, out, `"path":"/health/live"`)
	assert.Contains(t, out, `"level":"INFO","msg":"request processed"`)
	assert.Contains(t, out, `"level":"WARN","msg":"request rejected"`)
	assert.Contains(t, out, `"level":"ERROR","msg":"request failed"`)
	assert.Contains(t, out, `"error":"boom"`)
}
