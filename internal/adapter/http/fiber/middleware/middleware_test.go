package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/mocks"
	"github.com/seu-repo/autospace/internal/service/auth"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: session x", domain.ErrNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: already closed", domain.ErrConflict), fiber.StatusConflict},
		{fmt.Errorf("%w: bad id", domain.ErrInvalidArgument), fiber.StatusBadRequest},
		{fmt.Errorf("%w: no tariff", domain.ErrInvalidState), fiber.StatusUnprocessableEntity},
		{domain.Unavailable("find", errors.New("timeout")), fiber.StatusServiceUnavailable},
		{auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{auth.ErrOperatorDisabled, fiber.StatusForbidden},
		{fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestErrorHandler_RetryAfterOnUnavailable(t *testing.T) {
	// Arrange
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/", func(c *fiber.Ctx) error {
		return domain.Unavailable("create session", errors.New("connection reset"))
	})

	// Act
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))

	// Assert
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "5" {
		t.Errorf("expected Retry-After 5, got %q", resp.Header.Get("Retry-After"))
	}
}

func TestAuthRequired(t *testing.T) {
	service := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Operator, error) {
			switch token {
			case "good":
				return &domain.Operator{ID: "op-1"}, nil
			case "down":
				return nil, domain.Unavailable("find operator", errors.New("timeout"))
			}
			return nil, auth.ErrInvalidToken
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/me", AuthRequired(service), func(c *fiber.Ctx) error {
		return c.SendString(OperatorID(c))
	})

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing", want: fiber.StatusUnauthorized},
		{name: "malformed", header: "Token good", want: fiber.StatusUnauthorized},
		{name: "invalid", header: "Bearer bad", want: fiber.StatusUnauthorized},
		{name: "valid", header: "Bearer good", want: fiber.StatusOK},
		{name: "query token", query: "?access_token=good", want: fiber.StatusOK},
		{name: "auth store down", header: "Bearer down", want: fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestCircuitBreaker_TripsOnServerErrors(t *testing.T) {
	// Arrange
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Use(CircuitBreaker(BreakerSettings{MaxRequests: 3, Timeout: time.Minute, FailureThreshold: 0.6}, zap.NewNop()))
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("%w: session", domain.ErrNotFound)
	})

	// Act: client errors do not count
	for i := 0; i < 2; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/missing", nil))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404 before trip, got %d", resp.StatusCode)
		}
	}
	for i := 0; i < 3; i++ {
		_, _ = app.Test(httptest.NewRequest("GET", "/fail", nil))
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))

	// Assert
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503 once open, got %d", resp.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(2, time.Minute, false))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	var last int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		last = resp.StatusCode
	}
	if last != fiber.StatusTooManyRequests {
		t.Errorf("expected 429 on third request, got %d", last)
	}
}
