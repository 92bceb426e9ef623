package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status         HealthStatus           `json:"status"`
	Timestamp      string                 `json:"timestamp"`
	ServiceVersion string                 `json:"service_version"`
	GitCommit      string                 `json:"git_commit,omitempty"`
	BuildTime      string                 `json:"build_time,omitempty"`
	Uptime         string                 `json:"uptime"`
	Checks         map[string]HealthCheck `json:"checks"`
	System         SystemInfo             `json:"system"`
	RequestID      string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains runtime information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// handleHealthCheck reports store reachability and summary availability.
// A missing summary generator degrades the service but keeps it serving.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	start := time.Now()

	checks := map[string]HealthCheck{
		"store":   s.checkStoreHealth(r.Context()),
		"summary": s.checkSummaryHealth(),
	}

	overallStatus := HealthStatusHealthy
	for _, c := range checks {
		switch {
		case c.Status == HealthStatusUnhealthy:
			overallStatus = HealthStatusUnhealthy
		case c.Status == HealthStatusDegraded && overallStatus == HealthStatusHealthy:
			overallStatus = HealthStatusDegraded
		}
	}

	response := HealthCheckResponse{
		Status:         overallStatus,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ServiceVersion: ServiceVersion,
		GitCommit:      GitCommit,
		BuildTime:      BuildTime,
		Uptime:         s.Uptime().String(),
		Checks:         checks,
		System:         getSystemInfo(),
		RequestID:      requestID,
	}

	statusCode := http.StatusOK
	if overallStatus == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.audit.LogAuditEvent(
		requestID,
		"health_check",
		"system",
		string(overallStatus),
		map[string]interface{}{
			"duration":    time.Since(start),
			"checks":      len(checks),
			"status_code": statusCode,
		},
	)

	s.writeJSON(w, statusCode, response)
}

// handleReadiness is ready once the store answers
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	check := s.checkStoreHealth(r.Context())
	ready := check.Status == HealthStatusHealthy

	response := map[string]interface{}{
		"ready":           ready,
		"message":         check.Message,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"service_version": ServiceVersion,
		"request_id":      requestID,
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	s.writeJSON(w, statusCode, response)
}

// handleLiveness responds whenever the process is serving
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alive":           true,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"service_version": ServiceVersion,
		"uptime":          s.Uptime().String(),
		"request_id":      middleware.GetReqID(r.Context()),
	})
}

// handleVersion returns build information
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

func (s *Server) checkStoreHealth(ctx context.Context) HealthCheck {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatusHealthy
	message := "Store reachable"
	if err := s.games.Ping(ctx); err != nil {
		status = HealthStatusUnhealthy
		message = "Store unreachable: " + err.Error()
	}

	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

func (s *Server) checkSummaryHealth() HealthCheck {
	status := HealthStatusHealthy
	message := "Summary generator configured"
	if !s.games.SummariesEnabled() {
		status = HealthStatusDegraded
		message = "Summary generator not configured"
	}
	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
	}
}

func getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAlloc:   m.Alloc,
		GCCycles:      m.NumGC,
	}
}
