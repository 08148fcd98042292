package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/exporter"
	customMiddleware "github.com/szooyang/ai-project01/internal/middleware"
	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/internal/shared/testutil"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRidershipService is a testify mock for RidershipServiceInterface.
type MockRidershipService struct {
	mock.Mock
}

func (m *MockRidershipService) Options(ctx context.Context) (domain.SelectionOptions, error) {
	args := m.Called()
	return args.Get(0).(domain.SelectionOptions), args.Error(1)
}

func (m *MockRidershipService) Ranking(ctx context.Context, sess *services.Session, q services.RankingQuery) (domain.LineRanking, error) {
	args := m.Called(q)
	return args.Get(0).(domain.LineRanking), args.Error(1)
}

func (m *MockRidershipService) StationReport(ctx context.Context, sess *services.Session, station string) (domain.StationReport, error) {
	args := m.Called(station)
	return args.Get(0).(domain.StationReport), args.Error(1)
}

var testChart = exporter.ChartOptions{WidthPx: 600, HeightPx: 300}

// testStack is the sample month served through the real services.
type testStack struct {
	router   chi.Router
	sessions *services.SessionStore
	cache    *services.DatasetCache
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	logger := quietLogger()

	path := testutil.WriteCP949CSV(t, "subway.csv", testutil.SampleMonth()...)
	ingestor := dataprocessing.NewIngestor(dataprocessing.WithLogger(logger))
	cache, err := services.NewDatasetCache(ingestor, path, services.WithCacheLogger(logger))
	require.NoError(t, err)

	sessions := services.NewSessionStore(config.SessionConfig{TTL: time.Minute, MaxSessions: 10},
		services.WithSessionLogger(logger))
	ridership := services.NewRidershipService(cache, dataprocessing.DefaultPalette, nil, logger)
	health := services.NewHealthService(cache, sessions, logger)

	errorHandler := apierrors.NewErrorHandler(logger, false)
	r := newRouter(ridership, sessions, health, errorHandler, logger)
	return &testStack{router: r, sessions: sessions, cache: cache}
}

// newRouter mounts the handlers the way the application does.
func newRouter(ridership RidershipServiceInterface, sessions *services.SessionStore, health *services.HealthService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)

	healthHandler := NewHealthHandler(health, logger)
	sessionHandler := NewSessionHandler(sessions, logger, errorHandler)
	ridershipHandler := NewRidershipHandler(ridership, testChart, logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		r.Post("/sessions", sessionHandler.Create)
		r.Delete("/sessions/{id}", sessionHandler.Delete)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Sessions(sessions, errorHandler, logger))
			r.Get("/sessions/current", sessionHandler.Current)
			r.Mount("/ridership", ridershipHandler.Routes())
		})
	})
	return r
}

func withSession(req *http.Request, id string) *http.Request {
	req.Header.Set(customMiddleware.SessionHeader, id)
	return req
}
