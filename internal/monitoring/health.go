package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks engine liveness signals and serves them as JSON.
type HealthChecker struct {
	mu          sync.RWMutex
	lastCycle   time.Time
	lastPrice   float64
	isRunning   bool
	recentError string
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastCycle time.Time `json:"last_cycle"`
	LastPrice float64   `json:"last_price"`
	IsRunning bool      `json:"is_running"`
	Uptime    string    `json:"uptime"`
	LastError string    `json:"last_error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// MarkCycle records a completed trading cycle.
func (h *HealthChecker) MarkCycle(lastPrice float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
	h.lastPrice = lastPrice
	h.recentError = ""
}

// MarkError records the most recent cycle failure.
func (h *HealthChecker) MarkError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recentError = err.Error()
}

// SetRunning records whether the engine loop is active.
func (h *HealthChecker) SetRunning(running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isRunning = running
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isRunning {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if h.recentError != "" {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		LastCycle: h.lastCycle,
		LastPrice: h.lastPrice,
		IsRunning: h.isRunning,
		Uptime:    time.Since(startTime).String(),
		LastError: h.recentError,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
