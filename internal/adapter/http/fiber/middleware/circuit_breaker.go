package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var errServerStatus = errors.New("handler wrote a server error")

// BreakerSettings tunes the HTTP breaker.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
}

// CircuitBreaker sheds load while handlers keep failing with server errors.
// Client errors never count as failures.
func CircuitBreaker(settings BreakerSettings, log *zap.Logger) fiber.Handler {
	threshold := settings.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	minRequests := settings.MaxRequests
	if minRequests == 0 {
		minRequests = 3
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "http-api",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, errServerStatus) {
				return false
			}
			return StatusFor(err) < fiber.StatusInternalServerError
		},
	})

	return func(c *fiber.Ctx) error {
		_, err := cb.Execute(func() (interface{}, error) {
			if err := c.Next(); err != nil {
				return nil, err
			}
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				return nil, errServerStatus
			}
			return nil, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable")
		case errors.Is(err, errServerStatus):
			// response already written by the handler
			return nil
		}
		return err
	}
}
