package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/question-bank/internal/config"
	"github.com/gokatarajesh/question-bank/internal/logging"
	"github.com/gokatarajesh/question-bank/internal/question"
)

func testConfig() *config.App {
	return &config.App{
		Name:     "question-bank-test",
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         600,
		},
	}
}

func testRoutes(t *testing.T) Routes {
	t.Helper()
	store, err := question.NewMemoryStore()
	require.NoError(t, err)
	svc := question.NewService(store, zerolog.Nop(), question.ServiceOptions{})
	return Routes{Questions: question.NewHTTPHandler(svc, zerolog.Nop())}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), testRoutes(t), nil)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestReadyz(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewHandler(testConfig(), zerolog.Nop(), Routes{}, map[string]Check{"postgres": up, "redis": up})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","dependencies":{"postgres":"up","redis":"up"}}`, rec.Body.String())

	h = NewHandler(testConfig(), zerolog.Nop(), Routes{}, map[string]Check{"postgres": up, "redis": down})
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","dependencies":{"postgres":"up","redis":"down"}}`, rec.Body.String())

	h = NewHandler(testConfig(), zerolog.Nop(), Routes{}, nil)
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuestionRoutesMounted(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), testRoutes(t), nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodPatch, "/api/questions/x", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), testRoutes(t), nil)
	serve(h, httptest.NewRequest(http.MethodGet, "/api/questions", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="GET /api/questions"`)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), testRoutes(t), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(h, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerInjectsLoggerAndRecovers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var fromCtx bool
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())
		logger.Info().Msg("inside handler")
		fromCtx = true
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/explode", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := serve(h, req)

	assert.True(t, fromCtx)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, "inside handler")
	assert.Contains(t, out, "handler panicked")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}
