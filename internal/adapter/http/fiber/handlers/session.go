package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

type SessionHandler struct {
	service ports.SessionService
	now     func() time.Time
	log     *zap.Logger
}

func NewSessionHandler(service ports.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		now:     time.Now,
		log:     log,
	}
}

// RegisterRoutes mounts the session endpoints on an authenticated router.
func (h *SessionHandler) RegisterRoutes(router fiber.Router) {
	sessions := router.Group("/sessions")
	sessions.Post("/entry", h.Entry)
	sessions.Post("/exit", h.Exit)
	sessions.Get("/active", h.Active)
	sessions.Get("/number/:number", h.GetByNumber)
	sessions.Get("/", h.List)
	sessions.Get("/:id", h.Get)
	sessions.Get("/:id/quote", h.Quote)
	sessions.Post("/:id/exit", h.ExitByID)
}

type EntryRequest struct {
	VehicleID     string `json:"vehicle_id"`
	Plate         string `json:"plate"`
	SessionNumber string `json:"session_number"`
}

type ExitRequest struct {
	SessionID     string `json:"session_id"`
	SessionNumber string `json:"session_number"`
}

// Entry opens a session from a vehicle id or a scanned plate.
func (h *SessionHandler) Entry(c *fiber.Ctx) error {
	var req EntryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	hasID := strings.TrimSpace(req.VehicleID) != ""
	hasPlate := strings.TrimSpace(req.Plate) != ""
	if hasID == hasPlate {
		return fmt.Errorf("%w: exactly one of vehicle_id or plate is required", domain.ErrInvalidArgument)
	}

	open := ports.OpenSessionRequest{
		VehicleID:     req.VehicleID,
		SessionNumber: req.SessionNumber,
		Now:           h.now(),
	}
	if operatorID := middleware.OperatorID(c); operatorID != "" {
		open.OperatorID = &operatorID
	}

	var (
		sess *domain.Session
		err  error
	)
	if hasPlate {
		sess, err = h.service.OpenSessionByPlate(c.UserContext(), req.Plate, open)
	} else {
		sess, err = h.service.OpenSession(c.UserContext(), open)
	}
	if err != nil {
		h.log.Warn("Entry rejected", zap.String("vehicle_id", req.VehicleID), zap.String("plate", req.Plate), zap.Error(err))
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(sess)
}

// Exit closes a session identified in the body by id or number.
func (h *SessionHandler) Exit(c *fiber.Ctx) error {
	var req ExitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return h.close(c, req.SessionID, req.SessionNumber)
}

func (h *SessionHandler) ExitByID(c *fiber.Ctx) error {
	return h.close(c, c.Params("id"), "")
}

func (h *SessionHandler) close(c *fiber.Ctx, id, number string) error {
	sess, err := h.service.CloseSession(c.UserContext(), ports.CloseSessionRequest{
		SessionID:     id,
		SessionNumber: number,
		OperatorID:    middleware.OperatorID(c),
		Now:           h.now(),
	})
	if err != nil {
		h.log.Warn("Exit rejected", zap.String("session_id", id), zap.String("session_number", number), zap.Error(err))
		return err
	}
	return c.JSON(sess)
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, err := h.service.GetSession(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (h *SessionHandler) GetByNumber(c *fiber.Ctx) error {
	sess, err := h.service.GetSessionByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (h *SessionHandler) Active(c *fiber.Ctx) error {
	sessions, err := h.service.ListActiveSessions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(nonNil(sessions))
}

// List filters by entry time with optional RFC 3339 from/to bounds.
func (h *SessionHandler) List(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return err
	}

	sessions, err := h.service.ListSessions(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(nonNil(sessions))
}

// Quote prices an open session at ?at= or now.
func (h *SessionHandler) Quote(c *fiber.Ctx) error {
	at, err := parseTimeQuery(c, "at")
	if err != nil {
		return err
	}
	when := h.now()
	if at != nil {
		when = *at
	}

	invoice, err := h.service.QuoteSession(c.UserContext(), c.Params("id"), when)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", domain.ErrInvalidArgument, name)
	}
	return &t, nil
}

func nonNil(sessions []domain.Session) []domain.Session {
	if sessions == nil {
		return []domain.Session{}
	}
	return sessions
}
