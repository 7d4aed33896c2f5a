package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/deckflash/internal/logger"
)

func captureDefaultLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := logger.Default()
	logger.SetDefault(logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(logger.DEBUG),
		logger.WithColors(false),
	))
	t.Cleanup(func() { logger.SetDefault(previous) })
	return &buf
}

func TestRecoveredPanicKeepsRequestID(t *testing.T) {
	buf := captureDefaultLogger(t)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(loggingMiddleware)
		r.Use(recoveryMiddleware)
		r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	var panicLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "kaboom") {
			panicLine = line
		}
	}
	require.NotEmpty(t, panicLine, "panic was not logged: %s", buf.String())
	assert.Contains(t, panicLine, "request_id=req-123")
	assert.Contains(t, buf.String(), "request completed with server error")
	assert.Contains(t, buf.String(), "status=500")
}

func TestRoutes_RecoveredPanicKeepsRequestID(t *testing.T) {
	buf := captureDefaultLogger(t)

	s := &Server{}
	h := s.Routes().(*chi.Mux)
	h.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("routes kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "req-456")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "routes kaboom") {
			assert.Contains(t, line, "request_id=req-456")
			return
		}
	}
	t.Fatalf("panic was not logged: %s", buf.String())
}
