package handler

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/vermion/dashboard/internal/middleware"
	"github.com/vermion/dashboard/internal/port"
)

// AuditHandler exposes the calling user's recent audit trail.
type AuditHandler struct {
	store port.AuditStore
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(store port.AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// Register sets up routes on the session-protected group.
func (h *AuditHandler) Register(api fiber.Router) {
	api.Get("/audit", h.List)
}

// List returns recent audit rows for the session user.
func (h *AuditHandler) List(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	logs, err := h.store.ListAuditLogs(c.Context(), user.ID, limit)
	if err != nil {
		slog.Error("audit listing failed", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to list audit logs",
		})
	}
	return c.JSON(logs)
}
