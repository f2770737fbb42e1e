package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	return m
}

func TestLogger_FieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel).With("unit", "Italy")
	l.Error("fetch failed", "error", errors.New("boom"), "attempt", 2)

	m := lastLine(t, &buf)
	assert.Equal(t, "fetch failed", m["message"])
	assert.Equal(t, "error", m["level"])
	assert.Equal(t, "Italy", m["unit"])
	assert.Equal(t, "boom", m["error"])
	assert.EqualValues(t, 2, m["attempt"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)
	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFromConfig(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewFromConfig(&buf, "debug", "json")
	require.NoError(t, err)
	l.Debug("hello")
	assert.Equal(t, "hello", lastLine(t, &buf)["message"])

	_, err = NewFromConfig(&buf, "info", "xml")
	assert.Error(t, err)

	l, err = NewFromConfig(&buf, "bogus", "console")
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewWithWriter(&buf, zerolog.InfoLevel))
	ctx = WithRequestID(ctx, "req-1")
	FromContext(ctx).Info("scoped")
	assert.Equal(t, "req-1", lastLine(t, &buf)["request_id"])
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestFiberMiddleware(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(FiberMiddleware(NewWithWriter(&buf, zerolog.InfoLevel), "/health"))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/v1/x", func(c *fiber.Ctx) error {
		assert.NotEmpty(t, RequestID(c.UserContext()))
		return c.SendStatus(fiber.StatusNotFound)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Empty(t, buf.String())

	req := httptest.NewRequest("GET", "/v1/x", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.Header.Get(RequestIDHeader))
	m := lastLine(t, &buf)
	assert.Equal(t, "client error", m["message"])
	assert.Equal(t, "fixed-id", m["request_id"])
	assert.EqualValues(t, 404, m["status"])
}
