package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/autospace/pkg/config"
)

var (
	corsDefaultMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}
	corsDefaultHeaders = []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization, fiber.HeaderXRequestID}
	corsDefaultExpose  = []string{fiber.HeaderContentLength, fiber.HeaderRetryAfter, fiber.HeaderXRequestID}
)

const corsDefaultMaxAge = 24 * 60 * 60

func joinOr(values, fallback []string) string {
	if len(values) == 0 {
		values = fallback
	}
	return strings.Join(values, ",")
}

// NewCORS builds the fiber CORS middleware for the operator console.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := joinOr(cfg.AllowedOrigins, []string{"*"})

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = corsDefaultMaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:  origins,
		AllowMethods:  joinOr(cfg.AllowedMethods, corsDefaultMethods),
		AllowHeaders:  joinOr(cfg.AllowedHeaders, corsDefaultHeaders),
		ExposeHeaders: joinOr(cfg.ExposeHeaders, corsDefaultExpose),
		// fiber panics on credentials with a wildcard origin
		AllowCredentials: cfg.Credentials && origins != "*",
		MaxAge:           maxAge,
	})
}
