package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	store     *SessionStore
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service reporting on the session store.
func NewHealthService(version, buildTime, buildID string, store *SessionStore, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		store:     store,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"sessions": hs.checkSessions(),
		},
	}

	for _, s := range status.Services {
		if s.Status != "ready" {
			status.Status = "degraded"
		}
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status))
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	result := map[string]any{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     time.Since(hs.startTime).Seconds(),
		"start_time": hs.startTime.Format(time.RFC3339),
	}

	// Include build info if available
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// checkSessions reports the store as not ready once it is closed or full.
func (hs *HealthService) checkSessions() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "session store not initialized"}
	}

	hs.store.mu.Lock()
	closed, n, max := hs.store.closed, len(hs.store.sessions), hs.store.max
	hs.store.mu.Unlock()

	switch {
	case closed:
		return ServiceHealth{Status: "not_ready", Message: "session store closed"}
	case max > 0 && n >= max:
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("session limit reached (%d)", max)}
	}
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("%d active sessions", n)}
}
