package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"accounts/config"
	deliverycontext "accounts/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware_KeepsClientID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := NewRequestIDMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))).Process(func(c echo.Context) error {
		seen = deliverycontext.GetRequestIDFromContext(c.Request().Context())

		return nil
	})

	require.NoError(t, h(c))
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", deliverycontext.GetRequestID(c))
	assert.Equal(t, "req-123", rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestRequestIDMiddleware_ReplacesInvalidID(t *testing.T) {
	for name, id := range map[string]string{
		"empty":   "",
		"spaces":  "has spaces",
		"too big": strings.Repeat("a", maxRequestIDLength+1),
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(deliverycontext.HeaderXRequestID, id)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := NewRequestIDMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))).Process(func(echo.Context) error {
				return nil
			})

			require.NoError(t, h(c))
			got := rec.Header().Get(deliverycontext.HeaderXRequestID)
			assert.NotEmpty(t, got)
			assert.NotEqual(t, id, got)
		})
	}
}

func TestRequestIDMiddleware_RequestScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "req-456")
	c := e.NewContext(req, httptest.NewRecorder())

	h := NewRequestIDMiddleware(slog.New(slog.NewTextHandler(&buf, nil))).Process(func(c echo.Context) error {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), slog.Default()).Info("inside")

		return nil
	})

	require.NoError(t, h(c))
	assert.Contains(t, buf.String(), "request_id=req-456")
}

func TestLoggerMiddleware_DebugLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Env.Debug = true

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth?email=a@x.com", nil), httptest.NewRecorder())

	h := NewLoggerMiddleware(slog.New(slog.NewTextHandler(&buf, nil)), cfg).Handle(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	require.NoError(t, h(c))
	assert.Contains(t, buf.String(), "status=404")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.NotContains(t, buf.String(), "a@x.com")
}

func TestLoggerMiddleware_QuietOutsideDebug(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())

	h := NewLoggerMiddleware(slog.New(slog.NewTextHandler(&buf, nil)), &config.Config{}).Handle(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	assert.Empty(t, buf.String())
}
