package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/autospace/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/mocks"
	"github.com/seu-repo/autospace/internal/service/auth"
)

func newAuthApp(service *mocks.MockAuthService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(newTestLogger())})
	h := NewAuthHandler(service, newTestLogger())
	app.Post("/auth/login", h.Login)
	app.Post("/auth/logout", middleware.AuthRequired(service), h.Logout)
	app.Get("/auth/me", middleware.AuthRequired(service), h.Me)
	return app
}

func TestLogin(t *testing.T) {
	service := &mocks.MockAuthService{
		LoginFunc: func(ctx context.Context, email, pin string) (string, error) {
			if email == "op@autospace.io" && pin == "4321" {
				return "signed-token", nil
			}
			return "", auth.ErrInvalidCredentials
		},
	}
	app := newAuthApp(service)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "success", body: `{"email":"op@autospace.io","pin":"4321"}`, want: fiber.StatusOK},
		{name: "wrong pin", body: `{"email":"op@autospace.io","pin":"0000"}`, want: fiber.StatusUnauthorized},
		{name: "missing fields", body: `{"email":"op@autospace.io"}`, want: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if tt.want == fiber.StatusOK {
				var body map[string]string
				_ = json.NewDecoder(resp.Body).Decode(&body)
				if body["access_token"] != "signed-token" {
					t.Errorf("expected token in body, got %v", body)
				}
			}
		})
	}
}

func TestLogoutAndMe(t *testing.T) {
	var revoked string
	service := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Operator, error) {
			return &domain.Operator{ID: "op-1", Email: "op@autospace.io"}, nil
		},
		LogoutFunc: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	app := newAuthApp(service)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer abc")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if revoked != "abc" {
		t.Errorf("expected token abc revoked, got %q", revoked)
	}
}
