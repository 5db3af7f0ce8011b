package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/middleware"
	"github.com/vermion/dashboard/internal/port"
	"github.com/vermion/dashboard/internal/service"
)

// ConfigHandler serves guild configuration and bot actions. Every route is
// guild-scoped: the guild id is validated and the authorization gate runs
// before any read or write.
type ConfigHandler struct {
	guildService  *service.GuildService
	configService *service.ConfigService
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(guildService *service.GuildService, configService *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{guildService: guildService, configService: configService}
}

// Register sets up routes on the session-protected group.
func (h *ConfigHandler) Register(api fiber.Router) {
	api.Get("/guilds/:guild_id/channels", h.Channels)
	api.Get("/config/:guild_id", h.GetConfig)
	api.Post("/config/:guild_id", h.SaveConfig)
	api.Post("/config/:guild_id/send", h.SendTest)
	api.Post("/embed/:guild_id", h.SendEmbed)
}

// gate validates the guild id and runs the authorization check. It returns
// the guild id, or "" after having already written the error response.
func (h *ConfigHandler) gate(c fiber.Ctx) (string, error) {
	guildID := c.Params("guild_id")
	if !validSnowflake(guildID) {
		return "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   port.ErrInvalidGuildID.Error(),
		})
	}

	user := middleware.GetUser(c)
	ok, err := h.guildService.Authorize(c.Context(), user.ID, guildID)
	if err != nil {
		slog.Error("authorization check failed", "user_id", user.ID, "guild_id", guildID, "error", err)
		return "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "authorization check failed",
		})
	}
	if !ok {
		return "", c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   port.ErrForbidden.Error(),
		})
	}
	return guildID, nil
}

// GetConfig returns the guild's test message configuration.
func (h *ConfigHandler) GetConfig(c fiber.Ctx) error {
	guildID, err := h.gate(c)
	if guildID == "" {
		return err
	}

	cfg, err := h.configService.GetConfig(c.Context(), guildID)
	if errors.Is(err, port.ErrConfigNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"guild_id":     guildID,
			"test_message": nil,
		})
	}
	if err != nil {
		slog.Error("config read failed", "guild_id", guildID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to load config",
		})
	}
	return c.JSON(cfg)
}

// SaveConfig stores the guild's test message.
func (h *ConfigHandler) SaveConfig(c fiber.Ctx) error {
	guildID, err := h.gate(c)
	if guildID == "" {
		return err
	}

	var body struct {
		TestMessage string `json:"test_message"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.TestMessage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing test_message",
		})
	}

	if err := h.configService.SaveConfig(c.Context(), guildID, body.TestMessage); err != nil {
		slog.Error("config save failed", "guild_id", guildID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to save config",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// SendTest sends the stored test message to a channel.
func (h *ConfigHandler) SendTest(c fiber.Ctx) error {
	guildID, err := h.gate(c)
	if guildID == "" {
		return err
	}

	var body struct {
		ChannelID string `json:"channel_id"`
	}
	if err := c.Bind().JSON(&body); err != nil || !validSnowflake(body.ChannelID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing or malformed channel_id",
		})
	}

	sendErr := h.configService.SendTestMessage(c.Context(), guildID, body.ChannelID)
	if errors.Is(sendErr, port.ErrChannelNotInGuild) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   port.ErrChannelNotInGuild.Error(),
		})
	}
	if errors.Is(sendErr, port.ErrConfigNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "no test message configured",
		})
	}
	if sendErr != nil {
		slog.Error("test message send failed", "guild_id", guildID, "error", sendErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to send test message",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// SendEmbed sends a rich embed to a channel.
func (h *ConfigHandler) SendEmbed(c fiber.Ctx) error {
	guildID, err := h.gate(c)
	if guildID == "" {
		return err
	}

	var body struct {
		ChannelID string       `json:"channel_id"`
		Embed     domain.Embed `json:"embed"`
	}
	if err := c.Bind().JSON(&body); err != nil || !validSnowflake(body.ChannelID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing or malformed channel_id",
		})
	}
	if body.Embed.Title == "" && body.Embed.Description == "" && len(body.Embed.Fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "empty embed",
		})
	}

	sendErr := h.configService.SendEmbed(c.Context(), guildID, body.ChannelID, &body.Embed)
	if errors.Is(sendErr, port.ErrChannelNotInGuild) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   port.ErrChannelNotInGuild.Error(),
		})
	}
	if sendErr != nil {
		slog.Error("embed send failed", "guild_id", guildID, "error", sendErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to send embed",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Channels lists the guild's text channels.
func (h *ConfigHandler) Channels(c fiber.Ctx) error {
	guildID, err := h.gate(c)
	if guildID == "" {
		return err
	}

	channels, err := h.configService.Channels(c.Context(), guildID)
	if err != nil {
		slog.Error("channel listing failed", "guild_id", guildID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to list channels",
		})
	}
	return c.JSON(channels)
}

// validSnowflake reports whether s looks like a Discord snowflake id.
func validSnowflake(s string) bool {
	if len(s) == 0 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
