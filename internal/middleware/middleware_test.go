package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/greedy/internal/config"
	"github.com/deppfellow/greedy/internal/errs"
	"github.com/deppfellow/greedy/internal/server"
	"github.com/deppfellow/greedy/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(out *bytes.Buffer) *server.Server {
	log := zerolog.New(out)
	return &server.Server{Config: config.DefaultConfig(), Logger: &log}
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "api error passes through",
			err:     errs.NewBadRequestError("Validation failed: name is required", true, nil, nil),
			status:  http.StatusBadRequest,
			message: "Validation failed: name is required",
		},
		{
			name:    "missing desire",
			err:     sqlerr.WithTable("desires", pgx.ErrNoRows),
			status:  http.StatusNotFound,
			message: "Desire not found",
		},
		{
			name:    "check violation",
			err:     &pgconn.PgError{Code: "23514", TableName: "desires", ConstraintName: "desires_urgency_check"},
			status:  http.StatusBadRequest,
			message: "The Urgency value does not meet required conditions",
		},
		{
			name:    "unknown route",
			err:     echo.ErrNotFound,
			status:  http.StatusNotFound,
			message: "Route not found",
		},
		{
			name:    "method not allowed",
			err:     echo.ErrMethodNotAllowed,
			status:  http.StatusMethodNotAllowed,
			message: "Method Not Allowed",
		},
		{
			name:    "anything else",
			err:     errors.New("dial tcp 10.0.0.3:5432: connection refused"),
			status:  http.StatusInternalServerError,
			message: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toHTTPError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.status, statusFromError(tt.err))
		})
	}
}

func TestGlobalErrorHandler(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(&logs)
	global := NewGlobalMiddlewares(s)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/desires", nil), rec)

	global.GlobalErrorHandler(errors.New("pool exhausted"), c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body["error"])
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
	assert.EqualValues(t, http.StatusInternalServerError, body["status"])
	assert.NotContains(t, rec.Body.String(), "pool exhausted")
}

func TestGlobalErrorHandler_Head(t *testing.T) {
	var logs bytes.Buffer
	global := NewGlobalMiddlewares(newTestServer(&logs))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/api/desires/x", nil), rec)

	global.GlobalErrorHandler(sqlerr.WithTable("desires", pgx.ErrNoRows), c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestEnhanceContext_RequestLogger(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(&logs)
	enhancer := NewContextEnhancer(s)

	e := echo.New()
	e.Use(RequestID(), enhancer.EnhanceContext())
	e.GET("/api/desires", func(c echo.Context) error {
		GetLogger(c).Info().Msg("from echo context")
		zerolog.Ctx(c.Request().Context()).Info().Msg("from request context")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/desires", nil)
	req.Header.Set(RequestIDHeader, "abc")
	e.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "abc", entry["request_id"])
		assert.Equal(t, "/api/desires", entry["path"])
		assert.Equal(t, http.MethodGet, entry["method"])
	}
}

func TestGetLogger_WithoutEnhancer(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NotNil(t, GetLogger(c))
	assert.Empty(t, GetRequestID(c))
}

func TestRateLimit_Disabled(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(&logs)
	s.Config.RateLimit = config.RateLimitConfig{Enabled: false, Requests: 1, Window: 60}

	e := echo.New()
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for range 5 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), string(line))
		entries = append(entries, entry)
	}
	return entries
}

func TestFailedRequest_LoggedOnceWithStack(t *testing.T) {
	previous := zerolog.ErrorStackMarshaler
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	t.Cleanup(func() { zerolog.ErrorStackMarshaler = previous })

	var logs bytes.Buffer
	s := newTestServer(&logs)
	global := NewGlobalMiddlewares(s)

	e := echo.New()
	e.HTTPErrorHandler = global.GlobalErrorHandler
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext(), global.RequestLogger(), global.Recover())
	e.GET("/api/desires", func(c echo.Context) error {
		return errors.Wrap(errors.New("connection reset by peer"), "listing desires")
	})
	e.GET("/api/panic", func(c echo.Context) error {
		panic("nil map write")
	})

	for _, path := range []string{"/api/desires", "/api/panic"} {
		t.Run(path, func(t *testing.T) {
			logs.Reset()
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			var errorEntries, apiEntries []map[string]any
			for _, entry := range logLines(t, &logs) {
				if entry["level"] == "error" {
					errorEntries = append(errorEntries, entry)
				}
				if entry["message"] == "API" {
					apiEntries = append(apiEntries, entry)
				}
			}

			require.Len(t, errorEntries, 1, "one failure, one error event")
			require.Len(t, apiEntries, 1)
			assert.EqualValues(t, http.StatusInternalServerError, apiEntries[0]["status"])
			assert.Equal(t, "warn", apiEntries[0]["level"])
			if path == "/api/desires" {
				assert.Contains(t, errorEntries[0], "stack")
				assert.Equal(t, "listing desires: connection reset by peer", errorEntries[0]["error"])
			}
		})
	}
}
