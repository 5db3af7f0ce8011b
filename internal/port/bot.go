package port

import (
	"context"

	"github.com/vermion/dashboard/internal/domain"
)

// BotGateway is the outbound bot-token REST surface of Discord.
type BotGateway interface {
	// GuildPresent reports whether the bot is currently a member of the
	// guild. Queried live on every call; presence is never cached.
	GuildPresent(ctx context.Context, guildID string) (bool, error)

	// ListChannels returns the guild's text channels.
	ListChannels(ctx context.Context, guildID string) ([]domain.Channel, error)

	// SendMessage posts a plain text message to a channel.
	SendMessage(ctx context.Context, channelID, content string) error

	// SendEmbed posts a rich embed to a channel.
	SendEmbed(ctx context.Context, channelID string, embed *domain.Embed) error
}
