package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	customMiddleware "github.com/szooyang/ai-project01/internal/middleware"
	"github.com/szooyang/ai-project01/internal/services"
	api "github.com/szooyang/ai-project01/pkg/contracts/api/v1"
)

func TestSessionHandler_Lifecycle(t *testing.T) {
	stack := newTestStack(t)

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	env, created := decode[api.SessionResponse](t, rec)
	id := created.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, id, env.SessionID)
	assert.Equal(t, id, rec.Header().Get(customMiddleware.SessionHeader))
	assert.Equal(t, 1, stack.sessions.Len())

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil), id))
	require.Equal(t, http.StatusOK, rec.Code)
	_, sel := decode[services.Selection](t, rec)
	assert.Empty(t, sel.Line)

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, stack.sessions.Len())

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil), id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_CurrentWithoutMiddleware(t *testing.T) {
	stack := newTestStack(t)
	logger := quietLogger()
	handler := NewSessionHandler(stack.sessions, logger, nil)

	sess := stack.sessions.Open(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil)
	req = req.WithContext(customMiddleware.WithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	handler.Current(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	stack := newTestStack(t)

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
	assert.Contains(t, rec.Body.String(), `"fingerprint"`)

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger := quietLogger()
	cache, err := services.NewDatasetCache(dataprocessing.NewIngestor(), t.TempDir()+"/missing.csv", services.WithCacheLogger(logger))
	require.NoError(t, err)
	handler := NewHealthHandler(services.NewHealthService(cache, nil, logger), logger)

	rec := httptest.NewRecorder()
	handler.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_ready"`)
}
