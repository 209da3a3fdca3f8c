package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/mocks"
	"github.com/seu-repo/autospace/internal/ports"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestApp(service ports.SessionService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(newTestLogger())})
	authSvc := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Operator, error) {
			return &domain.Operator{ID: "op-1"}, nil
		},
	}
	h := NewSessionHandler(service, newTestLogger())
	h.now = func() time.Time { return fixedNow }
	h.RegisterRoutes(app.Group("/api/v1", middleware.AuthRequired(authSvc)))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer test")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestEntry_ByVehicleID(t *testing.T) {
	// Arrange
	var got ports.OpenSessionRequest
	service := &mocks.MockSessionService{
		OpenSessionFunc: func(ctx context.Context, req ports.OpenSessionRequest) (*domain.Session, error) {
			got = req
			return &domain.Session{ID: "s-1", SessionNumber: "AS-1", VehicleID: req.VehicleID, EntryTime: req.Now}, nil
		},
	}
	app := newTestApp(service)

	// Act
	status, body := do(t, app, "POST", "/api/v1/sessions/entry", `{"vehicle_id":"veh-1"}`)

	// Assert
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	if got.VehicleID != "veh-1" || !got.Now.Equal(fixedNow) {
		t.Errorf("unexpected request %+v", got)
	}
	if got.OperatorID == nil || *got.OperatorID != "op-1" {
		t.Errorf("expected operator op-1 on entry, got %v", got.OperatorID)
	}
	var sess domain.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.ID != "s-1" {
		t.Errorf("expected s-1, got %s", sess.ID)
	}
}

func TestEntry_ByPlate(t *testing.T) {
	var plate string
	service := &mocks.MockSessionService{
		OpenSessionByPlateFunc: func(ctx context.Context, p string, req ports.OpenSessionRequest) (*domain.Session, error) {
			plate = p
			return &domain.Session{ID: "s-2"}, nil
		},
	}
	app := newTestApp(service)

	status, _ := do(t, app, "POST", "/api/v1/sessions/entry", `{"plate":"abc-1234"}`)

	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if plate != "abc-1234" {
		t.Errorf("expected plate passed through, got %q", plate)
	}
}

func TestEntry_Validation(t *testing.T) {
	app := newTestApp(&mocks.MockSessionService{})

	tests := []struct {
		name string
		body string
	}{
		{name: "neither", body: `{}`},
		{name: "both", body: `{"vehicle_id":"v","plate":"p"}`},
		{name: "malformed", body: `{"vehicle_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, app, "POST", "/api/v1/sessions/entry", tt.body)
			if status != fiber.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
		})
	}
}

func TestEntry_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "already open", err: fmt.Errorf("%w: vehicle has an open session", domain.ErrConflict), want: fiber.StatusConflict},
		{name: "unknown vehicle", err: fmt.Errorf("%w: vehicle", domain.ErrNotFound), want: fiber.StatusNotFound},
		{name: "no tariff", err: fmt.Errorf("%w: no active tariff", domain.ErrInvalidState), want: fiber.StatusUnprocessableEntity},
		{name: "storage down", err: domain.Unavailable("create session", errors.New("timeout")), want: fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mocks.MockSessionService{
				OpenSessionFunc: func(ctx context.Context, req ports.OpenSessionRequest) (*domain.Session, error) {
					return nil, tt.err
				},
			}
			status, _ := do(t, newTestApp(service), "POST", "/api/v1/sessions/entry", `{"vehicle_id":"veh-1"}`)
			if status != tt.want {
				t.Errorf("expected %d, got %d", tt.want, status)
			}
		})
	}
}

func TestExit(t *testing.T) {
	var got ports.CloseSessionRequest
	service := &mocks.MockSessionService{
		CloseSessionFunc: func(ctx context.Context, req ports.CloseSessionRequest) (*domain.Session, error) {
			got = req
			amount := 7.5
			exit := req.Now
			return &domain.Session{ID: "s-1", ExitTime: &exit, Amount: &amount}, nil
		},
	}
	app := newTestApp(service)

	status, body := do(t, app, "POST", "/api/v1/sessions/exit", `{"session_number":"AS-1"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if got.SessionNumber != "AS-1" || got.OperatorID != "op-1" || !got.Now.Equal(fixedNow) {
		t.Errorf("unexpected close request %+v", got)
	}

	status, _ = do(t, app, "POST", "/api/v1/sessions/s-9/exit", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got.SessionID != "s-9" || got.SessionNumber != "" {
		t.Errorf("expected close by id s-9, got %+v", got)
	}
}

func TestExit_AlreadyClosed(t *testing.T) {
	service := &mocks.MockSessionService{
		CloseSessionFunc: func(ctx context.Context, req ports.CloseSessionRequest) (*domain.Session, error) {
			return nil, fmt.Errorf("%w: session already closed", domain.ErrConflict)
		},
	}
	status, _ := do(t, newTestApp(service), "POST", "/api/v1/sessions/s-1/exit", "")
	if status != fiber.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
}

func TestGetAndLookupRoutes(t *testing.T) {
	service := &mocks.MockSessionService{
		GetSessionFunc: func(ctx context.Context, id string) (*domain.Session, error) {
			if id == "s-1" {
				return &domain.Session{ID: "s-1"}, nil
			}
			return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
		},
		GetSessionByNumberFunc: func(ctx context.Context, number string) (*domain.Session, error) {
			return &domain.Session{ID: "s-1", SessionNumber: number}, nil
		},
		ListActiveSessionsFunc: func(ctx context.Context) ([]domain.Session, error) {
			return nil, nil
		},
	}
	app := newTestApp(service)

	if status, _ := do(t, app, "GET", "/api/v1/sessions/s-1", ""); status != fiber.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
	if status, _ := do(t, app, "GET", "/api/v1/sessions/missing", ""); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	if status, _ := do(t, app, "GET", "/api/v1/sessions/number/AS-7", ""); status != fiber.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
	status, body := do(t, app, "GET", "/api/v1/sessions/active", "")
	if status != fiber.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("expected empty array, got %d %s", status, body)
	}
}

func TestList_TimeWindow(t *testing.T) {
	var from, to *time.Time
	service := &mocks.MockSessionService{
		ListSessionsFunc: func(ctx context.Context, f, tt *time.Time) ([]domain.Session, error) {
			from, to = f, tt
			return []domain.Session{{ID: "s-1"}}, nil
		},
	}
	app := newTestApp(service)

	status, _ := do(t, app, "GET", "/api/v1/sessions?from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if from == nil || to == nil || !to.After(*from) {
		t.Errorf("expected both bounds parsed, got %v %v", from, to)
	}

	if status, _ := do(t, app, "GET", "/api/v1/sessions?from=yesterday", ""); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for bad timestamp, got %d", status)
	}
}

func TestQuote(t *testing.T) {
	var at time.Time
	service := &mocks.MockSessionService{
		QuoteSessionFunc: func(ctx context.Context, id string, when time.Time) (*domain.Invoice, error) {
			at = when
			return &domain.Invoice{SessionID: id, TotalAmount: 7.5, Currency: "BRL"}, nil
		},
	}
	app := newTestApp(service)

	status, body := do(t, app, "GET", "/api/v1/sessions/s-1/quote", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !at.Equal(fixedNow) {
		t.Errorf("expected quote at now, got %v", at)
	}

	_, _ = do(t, app, "GET", "/api/v1/sessions/s-1/quote?at=2024-03-01T15:30:00Z", "")
	if want := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC); !at.Equal(want) {
		t.Errorf("expected quote at %v, got %v", want, at)
	}
}
