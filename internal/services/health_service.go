package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/pkg/contracts"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// HealthService provides health check functionality
type HealthService struct {
	datasets  DatasetProvider
	sessions  SessionCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
	Dataset   *domain.DatasetInfo          `json:"dataset,omitempty"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. sessions may be nil.
func NewHealthService(datasets DatasetProvider, sessions SessionCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		datasets:  datasets,
		sessions:  sessions,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck is a cheap liveness probe that never touches the data file.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   &stats,
	}
	if info, ok := hs.datasets.Current(); ok {
		status.Dataset = &info
	}
	return status
}

// ReadinessCheck loads the data set if necessary. The service is ready
// when the export can be read and parsed.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]ServiceHealth),
	}

	ds, err := hs.datasets.Dataset(ctx)
	if err != nil {
		hs.logger.WarnContext(ctx, "dataset not ready", slog.String("error", err.Error()))
		status.Status = "not_ready"
		status.Services["dataset"] = ServiceHealth{Status: "not_ready", Message: err.Error()}
	} else {
		info := ds.Info()
		status.Dataset = &info
		health := ServiceHealth{Status: "ready"}
		if ds.Len() == 0 {
			health.Message = "no data for the month " + info.Scope.String()
		}
		status.Services["dataset"] = health
	}

	if hs.sessions != nil {
		status.Services["sessions"] = ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("%d active sessions", hs.sessions.Len()),
		}
	}
	return status
}

// Version returns build and runtime version details.
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
