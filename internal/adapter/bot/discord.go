// Package bot is the outbound Discord REST client authenticated with the
// bot token. Guild presence is queried live on every call so the dashboard
// never shows stale presence state.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordGateway implements port.BotGateway over Discord's REST API.
type DiscordGateway struct {
	botToken   string
	apiBase    string
	httpClient *http.Client
}

// NewDiscordGateway creates a gateway using the given bot token.
func NewDiscordGateway(botToken string) *DiscordGateway {
	return NewDiscordGatewayWithBase(botToken, discordAPIBase)
}

// NewDiscordGatewayWithBase creates a gateway against a custom API base URL.
func NewDiscordGatewayWithBase(botToken, apiBase string) *DiscordGateway {
	return &DiscordGateway{
		botToken:   botToken,
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GuildPresent reports whether the bot is a member of the guild.
// Discord answers 404 (or 403) for guilds the bot is not in.
func (g *DiscordGateway) GuildPresent(ctx context.Context, guildID string) (bool, error) {
	resp, err := g.do(ctx, http.MethodGet, "/guilds/"+guildID, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("%w: guild lookup returned %d", port.ErrBotUpstream, resp.StatusCode)
	}
}

// ListChannels returns the guild's text channels, ordered by position.
func (g *DiscordGateway) ListChannels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	resp, err := g.do(ctx, http.MethodGet, "/guilds/"+guildID+"/channels", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: list channels returned %d: %s", port.ErrBotUpstream, resp.StatusCode, string(body))
	}

	var all []domain.Channel
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}

	channels := make([]domain.Channel, 0, len(all))
	for _, ch := range all {
		if ch.Type == domain.ChannelTypeGuildText {
			channels = append(channels, ch)
		}
	}
	return channels, nil
}

// SendMessage posts a plain text message to a channel.
func (g *DiscordGateway) SendMessage(ctx context.Context, channelID, content string) error {
	return g.postMessage(ctx, channelID, map[string]any{"content": content})
}

// SendEmbed posts a rich embed to a channel.
func (g *DiscordGateway) SendEmbed(ctx context.Context, channelID string, embed *domain.Embed) error {
	return g.postMessage(ctx, channelID, map[string]any{"embeds": []*domain.Embed{embed}})
}

func (g *DiscordGateway) postMessage(ctx context.Context, channelID string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: send message returned %d: %s", port.ErrBotUpstream, resp.StatusCode, string(respBody))
	}
	return nil
}

func (g *DiscordGateway) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.apiBase+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+g.botToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrBotUpstream, err)
	}
	return resp, nil
}
