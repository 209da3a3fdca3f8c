package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/autospace/internal/ports"
)

const (
	LocalOperatorID = "operator_id"
	LocalOperator   = "operator"
	LocalToken      = "token"
)

func AuthRequired(service ports.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing or malformed authorization header"})
		}

		operator, err := service.ValidateToken(c.UserContext(), token)
		if err != nil || operator == nil {
			if err != nil && StatusFor(err) == fiber.StatusServiceUnavailable {
				return err
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(LocalOperatorID, operator.ID)
		c.Locals(LocalOperator, operator)
		c.Locals(LocalToken, token)

		return c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for websocket upgrades.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Query("access_token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// OperatorID returns the authenticated operator id, or "".
func OperatorID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalOperatorID).(string)
	return id
}
