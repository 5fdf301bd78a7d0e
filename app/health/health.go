// Package health provides health check endpoints for the ceremony ledger.
//
// The checker reports on:
// - The versioned store (latest height, app hash)
// - The ceremony itself (phase, participant count, read latency)
// - Ceremony invariants (detailed check only)
//
// The health check system supports multiple endpoints:
// - /health - Basic liveness check
// - /health/ready - Readiness check for load balancers
// - /health/detailed - Comprehensive status with metrics
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	"github.com/gorilla/mux"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Source is the ledger state the checker inspects.
type Source interface {
	LastCommit() storetypes.CommitID
	CeremonyStatus() (types.Phase, uint64, error)
	CheckInvariants(height int64) (string, bool, error)
}

// Checker performs health checks on the ledger
type Checker struct {
	logger  log.Logger
	source  Source
	version string

	maxResponseTime time.Duration

	mu            sync.RWMutex
	lastCheck     time.Time
	cachedHealth  *HealthCheck
	cacheDuration time.Duration
}

// Config holds configuration for the health checker
type Config struct {
	// MaxResponseTime is the read latency above which a component is degraded
	MaxResponseTime time.Duration

	// CacheDuration is how long to cache health check results
	CacheDuration time.Duration

	// Version is reported in every health check
	Version string
}

// DefaultConfig returns the default health check configuration
func DefaultConfig() Config {
	return Config{
		MaxResponseTime: time.Second,
		CacheDuration:   5 * time.Second,
	}
}

// NewChecker creates a new health checker
func NewChecker(logger log.Logger, cfg Config, source Source) (*Checker, error) {
	if source == nil {
		return nil, fmt.Errorf("ledger source is required")
	}

	return &Checker{
		logger:          logger,
		source:          source,
		version:         cfg.Version,
		maxResponseTime: cfg.MaxResponseTime,
		cacheDuration:   cfg.CacheDuration,
	}, nil
}

// Check performs a health check. Detailed checks bypass the cache and also
// run the ceremony invariants.
func (c *Checker) Check(ctx context.Context, detailed bool) (*HealthCheck, error) {
	if !detailed && c.shouldUseCached() {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.cachedHealth, nil
	}

	health := &HealthCheck{
		Timestamp:  time.Now(),
		Version:    c.version,
		Components: make(map[string]ComponentHealth),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	checks := []struct {
		name string
		fn   func(context.Context) ComponentHealth
	}{
		{"store", c.checkStore},
		{"ceremony", c.checkCeremony},
	}

	if detailed {
		checks = append(checks,
			struct {
				name string
				fn   func(context.Context) ComponentHealth
			}{"invariants", c.checkInvariants},
		)
	}

	for _, check := range checks {
		wg.Add(1)
		go func(name string, fn func(context.Context) ComponentHealth) {
			defer wg.Done()
			result := fn(ctx)
			mu.Lock()
			health.Components[name] = result
			mu.Unlock()
		}(check.name, check.fn)
	}

	wg.Wait()

	health.Status = c.calculateOverallStatus(health.Components)

	if !detailed {
		c.mu.Lock()
		c.lastCheck = time.Now()
		c.cachedHealth = health
		c.mu.Unlock()
	}

	return health, nil
}

// checkStore verifies that genesis has been committed
func (c *Checker) checkStore(_ context.Context) ComponentHealth {
	commit := c.source.LastCommit()
	if commit.Version == 0 {
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   "ledger has no genesis",
			Timestamp: time.Now(),
		}
	}

	return ComponentHealth{
		Status:    StatusHealthy,
		Message:   "store is committed",
		Timestamp: time.Now(),
		Metrics: map[string]interface{}{
			"latest_height": commit.Version,
			"app_hash":      cmtbytes.HexBytes(commit.Hash).String(),
		},
	}
}

// checkCeremony reads the current phase and measures the read latency
func (c *Checker) checkCeremony(_ context.Context) ComponentHealth {
	start := time.Now()
	phase, count, err := c.source.CeremonyStatus()
	duration := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   fmt.Sprintf("ceremony read failed: %v", err),
			Timestamp: time.Now(),
		}
	}

	metrics := map[string]interface{}{
		"phase":         phase.String(),
		"participants":  count,
		"query_time_ms": duration.Milliseconds(),
	}

	componentStatus := StatusHealthy
	message := fmt.Sprintf("ceremony in %s phase", phase)

	if duration > c.maxResponseTime {
		componentStatus = StatusDegraded
		message = "ceremony read latency is degraded"
	}

	return ComponentHealth{
		Status:    componentStatus,
		Message:   message,
		Timestamp: time.Now(),
		Metrics:   metrics,
	}
}

// checkInvariants runs every ceremony invariant at the latest height
func (c *Checker) checkInvariants(_ context.Context) ComponentHealth {
	msg, broken, err := c.source.CheckInvariants(0)
	if err != nil {
		return ComponentHealth{
			Status:    StatusUnknown,
			Message:   fmt.Sprintf("invariants not checked: %v", err),
			Timestamp: time.Now(),
		}
	}
	if broken {
		c.logger.Error("ceremony invariant broken", "invariant", msg)
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   msg,
			Timestamp: time.Now(),
		}
	}

	return ComponentHealth{
		Status:    StatusHealthy,
		Message:   "all invariants hold",
		Timestamp: time.Now(),
	}
}

// calculateOverallStatus determines the overall health status based on component statuses
func (c *Checker) calculateOverallStatus(components map[string]ComponentHealth) Status {
	hasUnhealthy := false
	hasDegraded := false

	for _, component := range components {
		switch component.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded, StatusUnknown:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// shouldUseCached determines if cached health check results should be used
func (c *Checker) shouldUseCached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cachedHealth == nil {
		return false
	}

	return time.Since(c.lastCheck) < c.cacheDuration
}

// RegisterRoutes registers health check endpoints on router
func (c *Checker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", c.handleHealth).Methods("GET")
	router.HandleFunc("/health/ready", c.handleHealthReady).Methods("GET")
	router.HandleFunc("/health/detailed", c.handleHealthDetailed).Methods("GET")
}

// handleHealth handles the basic liveness check endpoint
func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	commit := c.source.LastCommit()
	response := map[string]interface{}{
		"status":        "ok",
		"timestamp":     time.Now().Format(time.RFC3339),
		"latest_height": commit.Version,
		"app_hash":      cmtbytes.HexBytes(commit.Hash).String(),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleHealthReady handles the readiness check endpoint
func (c *Checker) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, false)
}

// handleHealthDetailed handles the detailed health check endpoint
func (c *Checker) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, true)
}

func (c *Checker) respond(w http.ResponseWriter, r *http.Request, detailed bool) {
	health, err := c.Check(r.Context(), detailed)
	if err != nil {
		c.logger.Error("Health check failed", "detailed", detailed, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
