package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool
	Current  string
	Progress int
	Steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Startup step names
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepBrokers    = "Connecting event broker and token store"
	StepServices   = "Initializing services"
	StepServer     = "Server ready"
)

// NewStartupStatus creates a status with the standard server steps
func NewStartupStatus() *StartupStatus {
	names := []string{StepDatabase, StepMigrations, StepBrokers, StepServices, StepServer}
	steps := make([]StartupStep, len(names))
	for i, name := range names {
		steps[i] = StartupStep{Name: name}
	}
	return &StartupStatus{Current: "Initializing...", Steps: steps}
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Steps {
		if s.Steps[i].Name == stepName {
			s.Steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range s.Steps {
		if step.Completed {
			completed++
		}
	}
	s.Progress = (completed * 100) / len(s.Steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Steps {
		s.Steps[i].Completed = true
	}
	s.Ready = true
	s.Current = StepServer
	s.Progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Ready
}

func (s *StartupStatus) snapshot() startupSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return startupSnapshot{
		Ready:    s.Ready,
		Current:  s.Current,
		Progress: s.Progress,
		Steps:    append([]StartupStep(nil), s.Steps...),
	}
}

type startupSnapshot struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// Pinger is a dependency the readiness check can reach
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BreakerReporter exposes the state of the storage circuit breaker
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	status  *StartupStatus
	db      Pinger
	breaker BreakerReporter
	log     *logrus.Logger
}

// NewHealthHandler creates a new health handler. breaker may be nil.
func NewHealthHandler(status *StartupStatus, db Pinger, breaker BreakerReporter, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{status: status, db: db, breaker: breaker, log: log}
}

type readinessResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Breaker  string          `json:"breaker,omitempty"`
	Startup  startupSnapshot `json:"startup"`
}

// Live reports that the process is serving requests
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether startup finished and storage is reachable
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{Status: "ok", Database: "ok", Startup: h.status.snapshot()}
	status := http.StatusOK

	if !resp.Startup.Ready {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil {
		resp.Database = "unavailable"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else if err := h.db.PingContext(ctx); err != nil {
		h.log.WithError(err).Warn("readiness check: database ping failed")
		resp.Database = "unavailable"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.breaker != nil {
		state := h.breaker.BreakerState()
		resp.Breaker = state.String()
		if state == gobreaker.StateOpen {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, status, resp)
}
