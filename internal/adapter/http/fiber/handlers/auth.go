package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

// AuthHandler serves operator login, logout and identity.
type AuthHandler struct {
	service ports.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service ports.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

type LoginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.PIN == "" {
		return fmt.Errorf("%w: email and pin are required", domain.ErrInvalidArgument)
	}

	token, err := h.service.Login(c.UserContext(), email, req.PIN)
	if err != nil {
		h.log.Warn("Operator login rejected", zap.String("email", email), zap.Error(err))
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(LoginResponse{AccessToken: token, TokenType: "Bearer"})
}

// Logout revokes the token that authenticated this request.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalToken).(string)
	if err := h.service.Logout(c.UserContext(), token); err != nil {
		return err
	}
	h.log.Info("Operator logged out", zap.String("operator_id", middleware.OperatorID(c)))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	operator, ok := c.Locals(middleware.LocalOperator).(*domain.Operator)
	if !ok || operator == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(operator)
}
