package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/shared/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset.File = testutil.WriteCP949CSV(t, "subway.csv", testutil.SampleMonth()...)
	cfg.Security.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Telemetry.MetricsEnabled = true
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	a, err := New(cfg, config.NewPaths(t.TempDir()), quietLogger())
	require.NoError(t, err)
	return a
}

func get(t *testing.T, a *Application, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew_WiresServices(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	require.NotNil(t, a.Services)
	assert.NotNil(t, a.Services.Datasets)
	assert.NotNil(t, a.Services.Sessions)
	assert.NotNil(t, a.Services.Ridership)
	assert.NotNil(t, a.Services.Health)
	assert.NotNil(t, a.WebSocketHub)
	assert.Equal(t, ":8080", a.Server.Addr)
	assert.Equal(t, a.Config.Server.ReadTimeout, a.Server.ReadTimeout)
}

func TestRouter_RankingOverHTTP(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	q := url.Values{"date": {"20251001"}, "line": {"2호선"}}
	rec := get(t, a, "/api/ridership/ranking?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sessionID := rec.Header().Get(config.SessionHeader)
	assert.NotEmpty(t, sessionID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var body struct {
		SessionID string `json:"session_id"`
		Data      struct {
			Bars []struct {
				Station string `json:"station"`
				Total   int64  `json:"total"`
				Color   string `json:"color"`
			} `json:"bars"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, sessionID, body.SessionID)
	require.Len(t, body.Data.Bars, 3)
	assert.Equal(t, "강남", body.Data.Bars[0].Station)
	assert.Equal(t, int64(1900), body.Data.Bars[0].Total)
	assert.Equal(t, "#FF0000", body.Data.Bars[0].Color)

	// The same session remembers the selection.
	rec = get(t, a, "/api/sessions/current", http.Header{config.SessionHeader: {sessionID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2호선")
}

func TestRouter_UnknownRouteIsProblem(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := get(t, a, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Not Found"`)
}

func TestRouter_Metrics(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	require.NotNil(t, a.OTelProviders.PrometheusHTTP)

	get(t, a, "/api/health", nil)
	rec := get(t, a, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsEnabled = false
	a := newTestApp(t, cfg)

	rec := get(t, a, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AllowedOrigins = []string{"http://dashboard.local"}
	a := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/ridership/options", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), config.SessionHeader)
}

func TestRouter_MissingDatasetNotReady(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.File = filepath.Join(t.TempDir(), "missing.csv")
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, a, "/api/health", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, a, "/api/health/ready", nil).Code)

	rec := get(t, a, "/api/ridership/options", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATA_UNREADABLE")
}

func TestApplication_ServeAndStop(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Serve(ctx, ln, cancel))

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(base, "http") + config.WebSocketEndpoint
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var hello struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connect", hello.Type)
	assert.NotEmpty(t, hello.SessionID)

	require.NoError(t, a.Stop(context.Background()))

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	_, err = http.Get(base + "/api/health")
	assert.Error(t, err)
}

func TestApplication_StartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	a := newTestApp(t, testConfig(t))
	a.Server.Addr = ln.Addr().String()

	err = a.Start(context.Background(), func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
