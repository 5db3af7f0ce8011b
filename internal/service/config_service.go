package service

import (
	"context"
	"fmt"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
)

// ConfigService manages per-guild bot configuration and the bot actions
// triggered from the dashboard. Callers must clear the authorization gate
// before invoking anything here.
type ConfigService struct {
	store port.ConfigStore
	bot   port.BotGateway
}

// NewConfigService creates a new config service.
func NewConfigService(store port.ConfigStore, bot port.BotGateway) *ConfigService {
	return &ConfigService{store: store, bot: bot}
}

// GetConfig returns the guild's configuration.
func (s *ConfigService) GetConfig(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	message, ok, err := s.store.TestMessage(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	if !ok {
		return nil, port.ErrConfigNotFound
	}
	return &domain.GuildConfig{GuildID: guildID, TestMessage: message}, nil
}

// SaveConfig stores the guild's test message.
func (s *ConfigService) SaveConfig(ctx context.Context, guildID, testMessage string) error {
	if err := s.store.SaveTestMessage(ctx, guildID, testMessage); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// SendTestMessage sends the guild's stored test message to one of the
// guild's own channels.
func (s *ConfigService) SendTestMessage(ctx context.Context, guildID, channelID string) error {
	if err := s.requireChannelInGuild(ctx, guildID, channelID); err != nil {
		return err
	}
	message, ok, err := s.store.TestMessage(ctx, guildID)
	if err != nil {
		return fmt.Errorf("load test message: %w", err)
	}
	if !ok {
		return port.ErrConfigNotFound
	}
	if err := s.bot.SendMessage(ctx, channelID, message); err != nil {
		return fmt.Errorf("send test message: %w", err)
	}
	return nil
}

// SendEmbed sends a rich embed to one of the guild's own channels.
func (s *ConfigService) SendEmbed(ctx context.Context, guildID, channelID string, embed *domain.Embed) error {
	if err := s.requireChannelInGuild(ctx, guildID, channelID); err != nil {
		return err
	}
	if err := s.bot.SendEmbed(ctx, channelID, embed); err != nil {
		return fmt.Errorf("send embed: %w", err)
	}
	return nil
}

// requireChannelInGuild rejects channel ids outside the authorized guild.
// The caller's gate only covers guild_id; without this check a manager of
// one guild could target any channel the bot can see.
func (s *ConfigService) requireChannelInGuild(ctx context.Context, guildID, channelID string) error {
	channels, err := s.bot.ListChannels(ctx, guildID)
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	for _, ch := range channels {
		if ch.ID == channelID {
			return nil
		}
	}
	return port.ErrChannelNotInGuild
}

// Channels lists the guild's text channels for the dashboard pickers.
func (s *ConfigService) Channels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	channels, err := s.bot.ListChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}
