package config

import "time"

// Application constants
const (
	AppName   = "Ridership Analytics"
	EnvPrefix = "RIDERSHIP"

	// Default dataset
	DefaultDatasetFile = "data/subway_2025_10.csv"
	DefaultYear        = 2025
	DefaultMonth       = 10

	// Sessions
	SessionHeader      = "X-Session-ID"
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1000

	// Rate limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Ranking
	DefaultTopN   = 10
	MaxRankLimit  = 500
	ChartWidthPx  = 1200
	ChartHeightPx = 600
)

// API routes
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
