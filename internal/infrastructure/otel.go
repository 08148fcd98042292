package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/pkg/contracts"
)

const (
	ServiceName = "ridership-analytics"
	MeterName   = "github.com/szooyang/ai-project01"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
	// TraceWriter receives stdout-exported spans; nil means os.Stdout.
	TraceWriter io.Writer
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    env,
		EnableMetrics:  true,
		EnableTracing:  false,
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	out := DefaultOTelConfig()
	if cfg.ServiceName != "" {
		out.ServiceName = cfg.ServiceName
	}
	out.EnableTracing = cfg.TracesEnabled
	out.EnableMetrics = cfg.MetricsEnabled
	return out
}

// InitializeOTel sets up tracing and metrics providers and installs them
// globally. Disabled signals leave the corresponding provider nil and the
// otel no-op implementation in place.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()
	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  otel.Meter(MeterName),
	}

	if cfg.EnableTracing {
		if err := initializeTracing(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func initializeTracing(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	w := cfg.TraceWriter
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.Info("Tracing initialized",
		slog.String("exporter", "stdout"),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	// A private registry keeps repeated initialisation (tests, restarts)
	// from colliding in the prometheus default registry.
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.Info("Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown flushes and stops the providers that were started.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("opentelemetry shutdown: %w", err)
	}
	if p.Logger != nil {
		p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	}
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RidershipMetrics holds the application instruments. All Record methods
// are safe on a nil receiver.
type RidershipMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	DatasetLoadsTotal   metric.Int64Counter
	DatasetLoadDuration metric.Float64Histogram
	DatasetRowsLoaded   metric.Int64Counter
	DatasetCacheLookups metric.Int64Counter

	QueriesTotal  metric.Int64Counter
	QueryDuration metric.Float64Histogram

	SessionsActive  metric.Int64UpDownCounter
	SessionsCreated metric.Int64Counter

	WebSocketConnections metric.Int64UpDownCounter
	WebSocketMessages    metric.Int64Counter
}

// NewRidershipMetrics creates the application instruments on meter.
func NewRidershipMetrics(meter metric.Meter) (*RidershipMetrics, error) {
	m := &RidershipMetrics{}
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	collect(err)
	m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	collect(err)
	m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"))
	collect(err)

	m.DatasetLoadsTotal, err = meter.Int64Counter("ridership_dataset_loads_total",
		metric.WithDescription("Dataset load attempts by outcome"))
	collect(err)
	m.DatasetLoadDuration, err = meter.Float64Histogram("ridership_dataset_load_duration_seconds",
		metric.WithDescription("Time to read and parse the ridership export"),
		metric.WithUnit("s"))
	collect(err)
	m.DatasetRowsLoaded, err = meter.Int64Counter("ridership_dataset_rows_total",
		metric.WithDescription("Usage records kept after scope filtering"))
	collect(err)
	m.DatasetCacheLookups, err = meter.Int64Counter("ridership_dataset_cache_lookups_total",
		metric.WithDescription("Dataset cache lookups by result"))
	collect(err)

	m.QueriesTotal, err = meter.Int64Counter("ridership_queries_total",
		metric.WithDescription("Ranking and station queries by kind"))
	collect(err)
	m.QueryDuration, err = meter.Float64Histogram("ridership_query_duration_seconds",
		metric.WithDescription("Query computation time"),
		metric.WithUnit("s"))
	collect(err)

	m.SessionsActive, err = meter.Int64UpDownCounter("ridership_sessions_active",
		metric.WithDescription("Sessions currently held in the store"))
	collect(err)
	m.SessionsCreated, err = meter.Int64Counter("ridership_sessions_created_total",
		metric.WithDescription("Sessions opened"))
	collect(err)

	m.WebSocketConnections, err = meter.Int64UpDownCounter("websocket_connections_active",
		metric.WithDescription("Open websocket connections"))
	collect(err)
	m.WebSocketMessages, err = meter.Int64Counter("websocket_messages_total",
		metric.WithDescription("Websocket messages by direction and type"))
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordHTTPRequest records a completed request.
func (m *RidershipMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackActiveRequest adjusts the in-flight request gauge by delta.
func (m *RidershipMetrics) TrackActiveRequest(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}

// RecordDatasetLoad records one load attempt. encoding is empty on failure.
func (m *RidershipMetrics) RecordDatasetLoad(ctx context.Context, encoding string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("encoding", encoding),
	)
	m.DatasetLoadsTotal.Add(ctx, 1, attrs)
	m.DatasetLoadDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.DatasetRowsLoaded.Add(ctx, int64(rows))
	}
}

// RecordCacheLookup records a dataset cache hit or miss.
func (m *RidershipMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DatasetCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordQuery records a ranking or station query.
func (m *RidershipMetrics) RecordQuery(ctx context.Context, kind string, empty bool, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("empty", empty),
	)
	m.QueriesTotal.Add(ctx, 1, attrs)
	m.QueryDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSessionOpened counts a new session.
func (m *RidershipMetrics) RecordSessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsCreated.Add(ctx, 1)
	m.SessionsActive.Add(ctx, 1)
}

// RecordSessionClosed decrements the active session gauge.
func (m *RidershipMetrics) RecordSessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsActive.Add(ctx, -1)
}

// TrackWebSocketConnection adjusts the open connection gauge by delta.
func (m *RidershipMetrics) TrackWebSocketConnection(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketConnections.Add(ctx, delta)
}

// RecordWebSocketMessage counts a message; direction is "in" or "out".
func (m *RidershipMetrics) RecordWebSocketMessage(ctx context.Context, direction, msgType string) {
	if m == nil {
		return
	}
	m.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}

// TraceIDFromContext extracts the OpenTelemetry trace ID, if a valid span
// context is present.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// StartSpan starts a span on the global tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(MeterName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
