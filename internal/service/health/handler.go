package health

import (
	"github.com/gofiber/fiber/v2"
)

// FiberHandler exposes liveness and readiness probes over HTTP.
type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes mounts /health and /ready plus the Kubernetes style
// /healthz and /readyz aliases.
func (h *FiberHandler) RegisterRoutes(router fiber.Router) {
	for _, path := range []string{"/health", "/healthz"} {
		router.Get(path, h.Health)
	}
	for _, path := range []string{"/ready", "/readyz"} {
		router.Get(path, h.Ready)
	}
}

// Health never touches dependencies; it only proves the process serves.
func (h *FiberHandler) Health(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(h.service.Health(c.UserContext()))
}

// Ready answers 503 while a critical dependency is failing so load
// balancers stop routing gate traffic here.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	resp := h.service.Ready(c.UserContext())
	if !resp.Ready {
		c.Set(fiber.HeaderRetryAfter, "5")
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
