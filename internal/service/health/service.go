package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const checkTimeout = 5 * time.Second

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                                    `json:"ready"`
	Status    Status                                  `json:"status"`
	Timestamp time.Time                               `json:"timestamp"`
	Checks    map[string]CheckResult                  `json:"checks"`
	Breakers  map[string]circuitbreaker.BreakerStatus `json:"breakers,omitempty"`
}

// Pinger is any dependency that can answer a round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// BreakerSource reports infrastructure breaker states.
type BreakerSource interface {
	Status() map[string]circuitbreaker.BreakerStatus
}

type dependency struct {
	pinger   Pinger
	critical bool
}

// Service handles health checks
type Service struct {
	version      string
	startTime    time.Time
	dependencies map[string]dependency
	breakers     BreakerSource
	log          *zap.Logger
	mu           sync.RWMutex
}

func NewService(version string, breakers BreakerSource, log *zap.Logger) *Service {
	return &Service{
		version:      version,
		startTime:    time.Now(),
		dependencies: make(map[string]dependency),
		breakers:     breakers,
		log:          log,
	}
}

// Register adds a dependency check. A failing critical dependency makes the
// service not ready; a failing optional one only degrades it.
func (s *Service) Register(name string, pinger Pinger, critical bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependencies[name] = dependency{pinger: pinger, critical: critical}
	s.log.Info("Registered health checker", zap.String("name", name), zap.Bool("critical", critical))
}

// Health performs a basic liveness check
func (s *Service) Health(_ context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Truncate(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every registered check concurrently.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	deps := make(map[string]dependency, len(s.dependencies))
	for k, v := range s.dependencies {
		deps[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult, len(deps))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, dep := range deps {
		wg.Add(1)
		go func(name string, dep dependency) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			result := s.check(checkCtx, name, dep)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, dep)
	}
	wg.Wait()

	overall := StatusHealthy
	ready := true
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
			ready = false
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}

	resp := &ReadyResponse{
		Ready:     ready,
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    results,
	}

	if s.breakers != nil {
		resp.Breakers = s.breakers.Status()
		if open := openBreakers(resp.Breakers); len(open) > 0 && overall == StatusHealthy {
			resp.Status = StatusDegraded
		}
	}
	return resp
}

func (s *Service) check(ctx context.Context, name string, dep dependency) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      name,
		Timestamp: start,
	}

	err := dep.pinger.Ping(ctx)
	result.Duration = time.Since(start)

	if err == nil {
		result.Status = StatusHealthy
		result.Message = "connection ok"
		return result
	}

	result.Message = fmt.Sprintf("ping failed: %v", err)
	if dep.critical {
		result.Status = StatusUnhealthy
	} else {
		result.Status = StatusDegraded
	}
	s.log.Warn("Health check failed", zap.String("name", name), zap.Error(err))
	return result
}

func openBreakers(status map[string]circuitbreaker.BreakerStatus) []string {
	var open []string
	for name, st := range status {
		if st.State == "open" {
			open = append(open, name)
		}
	}
	sort.Strings(open)
	return open
}
