package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/internal/shared/testutil"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
	"github.com/szooyang/ai-project01/pkg/contracts/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockQueryService is a testify mock for QueryService.
type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Options(ctx context.Context) (domain.SelectionOptions, error) {
	args := m.Called()
	return args.Get(0).(domain.SelectionOptions), args.Error(1)
}

func (m *MockQueryService) Ranking(ctx context.Context, sess *services.Session, q services.RankingQuery) (domain.LineRanking, error) {
	args := m.Called(q)
	return args.Get(0).(domain.LineRanking), args.Error(1)
}

func (m *MockQueryService) StationReport(ctx context.Context, sess *services.Session, station string) (domain.StationReport, error) {
	args := m.Called(station)
	return args.Get(0).(domain.StationReport), args.Error(1)
}

// wsServer runs the /ws handler over the sample month.
type wsServer struct {
	server   *httptest.Server
	hub      *Hub
	sessions *services.SessionStore
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	logger := quietLogger()

	path := testutil.WriteCP949CSV(t, "subway.csv", testutil.SampleMonth()...)
	cache, err := services.NewDatasetCache(dataprocessing.NewIngestor(dataprocessing.WithLogger(logger)), path,
		services.WithCacheLogger(logger))
	require.NoError(t, err)

	sessions := services.NewSessionStore(config.SessionConfig{TTL: time.Minute, MaxSessions: 10},
		services.WithSessionLogger(logger))
	ridership := services.NewRidershipService(cache, dataprocessing.DefaultPalette, nil, logger)

	hub := NewHub(nil, logger)
	hub.Start()

	handler := NewHandler(hub, sessions, NewDispatcher(ridership, 5*time.Second, nil, logger),
		config.WebSocketConfig{PongWait: time.Minute, PingPeriod: 30 * time.Second},
		nil, apierrors.NewErrorHandler(logger, false), logger)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Stop(ctx)
	})
	return &wsServer{server: srv, hub: hub, sessions: sessions}
}

func (s *wsServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// rawReply keeps Data undecoded so each test picks its type.
type rawReply struct {
	events.BaseMessage
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func readReply(t *testing.T, conn *websocket.Conn) rawReply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply rawReply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}
