package middleware

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/service/auth"
)

// RetryAfterSeconds is advertised on 503 responses.
const RetryAfterSeconds = 5

// StatusFor maps an error onto an HTTP status code.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, auth.ErrOperatorDisabled):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)

		switch code {
		case fiber.StatusInternalServerError:
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		case fiber.StatusServiceUnavailable:
			log.Warn("Dependency unavailable", zap.Error(err), zap.String("path", c.Path()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
		}

		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
