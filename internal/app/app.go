package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/exporter"
	"github.com/szooyang/ai-project01/internal/files"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	customMiddleware "github.com/szooyang/ai-project01/internal/middleware"
	"github.com/szooyang/ai-project01/internal/services"
	handlers "github.com/szooyang/ai-project01/internal/transport/http"
	ws "github.com/szooyang/ai-project01/internal/websocket"
	"github.com/szooyang/ai-project01/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.RidershipMetrics
	Services      *ServiceContainer
	WebSocketHub  *ws.Hub

	errorHandler *apierrors.ErrorHandler
	startTime    time.Time
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Datasets  *services.DatasetCache
	Sessions  *services.SessionStore
	Ridership *services.RidershipService
	Health    *services.HealthService
}

// NewApplication loads configuration, initializes logging and builds the
// application from it.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	return New(cfg, paths, logger)
}

// New wires every component from an already loaded configuration.
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewRidershipMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
		startTime:     time.Now(),
	}

	if err := infrastructure.RegisterRuntimeGauges(otelProviders.Meter, app.startTime); err != nil {
		return nil, fmt.Errorf("failed to register runtime gauges: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	ingestor := dataprocessing.NewIngestor(
		dataprocessing.WithEncodings(a.Config.Dataset.Encodings...),
		dataprocessing.WithScope(a.Config.Dataset.Scope()),
		dataprocessing.WithSheet(a.Config.Dataset.Sheet),
		dataprocessing.WithLogger(a.Logger),
	)

	datasetPath, err := files.NewDiscovery(a.Paths.ExecutableDir).
		ResolveDataset(a.Paths.ResolveDataFile(a.Config.Dataset.File))
	if err != nil {
		return fmt.Errorf("failed to locate dataset: %w", err)
	}
	datasets, err := services.NewDatasetCache(ingestor, datasetPath,
		services.WithCacheMetrics(a.Metrics),
		services.WithCacheLogger(a.Logger),
		services.WithLoadTimeout(a.Config.Server.RequestTimeout))
	if err != nil {
		return fmt.Errorf("failed to create dataset cache: %w", err)
	}

	sessions := services.NewSessionStore(a.Config.Session,
		services.WithSessionMetrics(a.Metrics),
		services.WithSessionLogger(a.Logger))

	a.Services = &ServiceContainer{
		Datasets:  datasets,
		Sessions:  sessions,
		Ridership: services.NewRidershipService(datasets, dataprocessing.DefaultPalette, a.Metrics, a.Logger),
		Health:    services.NewHealthService(datasets, sessions, a.Logger),
	}

	a.WebSocketHub = ws.NewHub(a.Metrics, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These don't wrap the ResponseWriter, so the websocket upgrade still works.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	dispatcher := ws.NewDispatcher(a.Services.Ridership, a.Config.Server.RequestTimeout, a.Metrics, a.Logger)
	wsHandler := ws.NewHandler(a.WebSocketHub, a.Services.Sessions, dispatcher,
		a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.errorHandler, a.Logger)
	r.Handle(config.WebSocketEndpoint, wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(apierrors.NewErrorMiddleware(a.errorHandler, a.Logger).Handler)
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.errorHandler,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	sessionHandler := handlers.NewSessionHandler(a.Services.Sessions, a.Logger, a.errorHandler)
	ridershipHandler := handlers.NewRidershipHandler(a.Services.Ridership, exporter.ChartOptions{
		WidthPx:  config.ChartWidthPx,
		HeightPx: config.ChartHeightPx,
	}, a.Logger, a.errorHandler)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		r.Post("/sessions", sessionHandler.Create)
		r.Delete("/sessions/{id}", sessionHandler.Delete)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Sessions(a.Services.Sessions, a.errorHandler, a.Logger))
			r.Get("/sessions/current", sessionHandler.Current)
			r.Mount("/ridership", ridershipHandler.Routes())
		})
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowCredentials: true,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start binds the listener and serves in the background. A serve failure
// after startup calls cancel so Run can shut down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln, cancel)
}

// Serve is Start on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", ln.Addr().String()),
		slog.String("dataset", a.Services.Datasets.Path()),
		slog.String("scope", a.Config.Dataset.Scope().String()),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			if cancel != nil {
				cancel()
			}
		}
	}()

	a.warmUp(ctx)
	return nil
}

// warmUp loads the data set once so the first user does not pay for it. A
// failure is logged and retried on the next request.
func (a *Application) warmUp(ctx context.Context) {
	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status != "ready" {
		a.Logger.WarnContext(ctx, "Startup readiness check failed",
			slog.Any("services", status.Services))
		return
	}
	attrs := []any{slog.String("status", status.Status)}
	if status.Dataset != nil {
		attrs = append(attrs,
			slog.Int("rows_read", status.Dataset.RowsRead),
			slog.Int("rows_in_scope", status.Dataset.RowsInScope),
			slog.String("encoding", status.Dataset.Encoding))
	}
	a.Logger.InfoContext(ctx, "Dataset loaded", attrs...)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	// Hijacked websocket connections are not tracked by Shutdown.
	if err := a.WebSocketHub.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("websocket hub shutdown: %w", err))
	}
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Duration("uptime", time.Since(a.startTime)))
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
