package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-bulk-update/internal/constants"
	"todo-bulk-update/pkg/logging"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) error
	Name() string
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) error
}

func (f funcChecker) Name() string                    { return f.name }
func (f funcChecker) Check(ctx context.Context) error { return f.fn(ctx) }

// NewFuncChecker wraps fn as a checker. A nil return means healthy.
func NewFuncChecker(name string, fn func(ctx context.Context) error) HealthChecker {
	return funcChecker{name: name, fn: fn}
}

// NewSQLChecker pings a database/sql pool.
func NewSQLChecker(name string, db *sql.DB) HealthChecker {
	return funcChecker{name: name, fn: db.PingContext}
}

// NewRedisChecker pings a Redis client.
func NewRedisChecker(name string, rdb redis.UniversalClient) HealthChecker {
	return funcChecker{name: name, fn: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// Manager runs registered checkers concurrently and caches the result
// for a short TTL so probes do not hammer the backends.
type Manager struct {
	mu        sync.Mutex
	checkers  []HealthChecker
	startTime time.Time
	timeout   time.Duration
	ttl       time.Duration
	last      *SystemHealth
	logger    *logging.ComponentLogger
}

func NewManager(logger *logging.Logger) *Manager {
	return &Manager{
		startTime: time.Now(),
		timeout:   constants.HealthTimeoutDefault,
		ttl:       constants.HealthCheckTTLDefault,
		logger:    logger.WithComponent("health"),
	}
}

// Register adds checkers. Call before serving.
func (m *Manager) Register(checkers ...HealthChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range checkers {
		m.checkers = append(m.checkers, c)
		m.logger.Info("Registered health checker", logging.String("checker", c.Name()))
	}
}

// CheckAll runs all health checks, or returns the cached result while fresh.
func (m *Manager) CheckAll(ctx context.Context) SystemHealth {
	m.mu.Lock()
	if m.last != nil && time.Since(m.last.Timestamp) < m.ttl {
		cached := *m.last
		m.mu.Unlock()
		return cached
	}
	checkers := append([]HealthChecker(nil), m.checkers...)
	m.mu.Unlock()

	results := make([]ComponentHealth, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			results[i] = m.run(ctx, c)
		}(i, c)
	}
	wg.Wait()

	status := HealthStatusHealthy
	if len(results) == 0 {
		status = HealthStatusUnknown
	}
	components := make(map[string]ComponentHealth, len(results))
	for _, r := range results {
		components[r.Name] = r
		if r.Status != HealthStatusHealthy {
			status = HealthStatusUnhealthy
		}
	}

	health := SystemHealth{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     time.Since(m.startTime).Round(time.Second).String(),
		Components: components,
	}

	m.mu.Lock()
	m.last = &health
	m.mu.Unlock()
	return health
}

func (m *Manager) run(ctx context.Context, c HealthChecker) ComponentHealth {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	result := ComponentHealth{Name: c.Name(), LastChecked: start, Status: HealthStatusHealthy}
	if err := c.Check(checkCtx); err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = err.Error()
		result.Message = "check failed"
		m.logger.Warn("Health check failed", logging.String("checker", c.Name()), logging.String("error", err.Error()))
	}
	result.Duration = time.Since(start)
	return result
}

// RegisterHandlers mounts /health, /health/live and /health/ready on mux.
func (m *Manager) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/health/live", m.handleLiveness)
	mux.HandleFunc("/health/ready", m.handleReadiness)
}

func (m *Manager) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := m.CheckAll(r.Context())
	writeJSON(w, statusCode(health.Status), health)
}

// handleLiveness provides Kubernetes-style liveness probe
func (m *Manager) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(m.startTime).Round(time.Second).String(),
	})
}

// handleReadiness provides Kubernetes-style readiness probe
func (m *Manager) handleReadiness(w http.ResponseWriter, r *http.Request) {
	health := m.CheckAll(r.Context())
	ready := health.Status != HealthStatusUnhealthy
	writeJSON(w, statusCode(health.Status), map[string]interface{}{
		"status":     health.Status,
		"ready":      ready,
		"components": len(health.Components),
	})
}

func statusCode(s HealthStatus) int {
	if s == HealthStatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
