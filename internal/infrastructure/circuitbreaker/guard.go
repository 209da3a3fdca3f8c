package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures a Guard.
type Settings struct {
	// MaxRequests allowed through while half-open
	MaxRequests uint32
	// Interval clears failure counts while closed
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing
	Timeout time.Duration
	// FailureThreshold consecutive infrastructure failures trip the breaker
	FailureThreshold uint32

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		MaxRetries:       2,
		InitialInterval:  50 * time.Millisecond,
		MaxInterval:      500 * time.Millisecond,
	}
}

// Guard protects calls to one infrastructure dependency with a breaker and,
// for idempotent calls, bounded exponential retries. Domain outcomes count
// as successes and are never retried.
type Guard struct {
	name     string
	cb       *gobreaker.CircuitBreaker
	settings Settings
	log      *zap.Logger
}

func NewGuard(name string, settings Settings, log *zap.Logger) *Guard {
	def := DefaultSettings()
	if settings.MaxRequests == 0 {
		settings.MaxRequests = def.MaxRequests
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = def.FailureThreshold
	}
	if settings.Timeout == 0 {
		settings.Timeout = def.Timeout
	}
	if settings.InitialInterval == 0 {
		settings.InitialInterval = def.InitialInterval
	}
	if settings.MaxInterval == 0 {
		settings.MaxInterval = def.MaxInterval
	}

	g := &Guard{
		name:     name,
		settings: settings,
		log:      log,
	}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || domain.IsDomainError(err)
		},
	})
	return g
}

func (g *Guard) Name() string { return g.name }

func (g *Guard) State() string { return g.cb.State().String() }

func (g *Guard) Counts() gobreaker.Counts { return g.cb.Counts() }

// Run executes fn once. Non-domain failures come back as domain.ErrUnavailable.
func (g *Guard) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnavailable, op, ErrCircuitOpen)
	}
	return domain.Unavailable(op, err)
}

// Retry executes fn through the breaker, retrying infrastructure failures up
// to MaxRetries times. Only use it for idempotent operations.
func (g *Guard) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := g.Run(ctx, op, fn)
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		g.log.Debug("Retrying infrastructure call",
			zap.String("breaker", g.name),
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = g.settings.InitialInterval
	eb.MaxInterval = g.settings.MaxInterval
	eb.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(eb, g.settings.MaxRetries), ctx))
	return domain.Unavailable(op, err)
}

// Do is Retry for calls that return a value.
func Do[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := g.Retry(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Manager hands out one Guard per dependency name.
type Manager struct {
	settings Settings
	guards   map[string]*Guard
	mu       sync.RWMutex
	log      *zap.Logger
}

func NewManager(settings Settings, log *zap.Logger) *Manager {
	return &Manager{
		settings: settings,
		guards:   make(map[string]*Guard),
		log:      log,
	}
}

// Get returns the guard for name, creating it on first use.
func (m *Manager) Get(name string) *Guard {
	m.mu.RLock()
	g, exists := m.guards[name]
	m.mu.RUnlock()
	if exists {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if g, exists = m.guards[name]; exists {
		return g
	}
	g = NewGuard(name, m.settings, m.log)
	m.guards[name] = g
	return g
}

// BreakerStatus is the externally visible state of one guard.
type BreakerStatus struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

func (m *Manager) Status() map[string]BreakerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]BreakerStatus, len(m.guards))
	for name, g := range m.guards {
		counts := g.Counts()
		status[name] = BreakerStatus{
			Name:                name,
			State:               g.State(),
			Requests:            counts.Requests,
			ConsecutiveFailures: counts.ConsecutiveFailures,
		}
	}
	return status
}
