package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/vermion/dashboard/internal/middleware"
	"github.com/vermion/dashboard/internal/service"
)

// UserHandler serves the authenticated user's identity and guild list.
type UserHandler struct {
	guildService *service.GuildService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(guildService *service.GuildService) *UserHandler {
	return &UserHandler{guildService: guildService}
}

// Register sets up routes on the session-protected group.
func (h *UserHandler) Register(api fiber.Router) {
	api.Get("/me", h.Me)
	api.Get("/guilds", h.Guilds)
}

// Me returns the identity bound to the session.
func (h *UserHandler) Me(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	return c.JSON(fiber.Map{
		"id":            user.ID,
		"username":      user.Username,
		"discriminator": user.Discriminator,
		"avatar":        user.Avatar,
	})
}

// Guilds returns the guilds the user manages, with live bot presence.
func (h *UserHandler) Guilds(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	guilds, err := h.guildService.ManagedGuilds(c.Context(), user.ID)
	if err != nil {
		slog.Error("guild listing failed", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to list guilds",
		})
	}
	return c.JSON(guilds)
}
