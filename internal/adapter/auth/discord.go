package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
)

const (
	discordAuthURL  = "https://discord.com/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/v10/oauth2/token"
	discordAPIBase  = "https://discord.com/api/v10"
)

// DiscordProvider implements port.AuthProvider for Discord OAuth2.
type DiscordProvider struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
}

// NewDiscordProvider creates a Discord OAuth provider with the standard
// endpoints and the "identify guilds" scope.
func NewDiscordProvider(clientID, clientSecret, redirectURL string) *DiscordProvider {
	return newDiscordProvider(clientID, clientSecret, redirectURL, discordAuthURL, discordTokenURL, discordAPIBase)
}

func newDiscordProvider(clientID, clientSecret, redirectURL, authURL, tokenURL, apiBase string) *DiscordProvider {
	return &DiscordProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL returns the Discord consent screen URL.
func (p *DiscordProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *DiscordProvider) ExchangeCode(ctx context.Context, code string) (*domain.TokenPair, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", port.ErrUpstreamAuth, err)
	}

	return &domain.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}, nil
}

// FetchIdentity fetches the authenticated user via /users/@me.
func (p *DiscordProvider) FetchIdentity(ctx context.Context, accessToken string) (*domain.User, error) {
	body, err := p.get(ctx, "/users/@me", accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch identity: %v", port.ErrUpstreamAuth, err)
	}

	var profile struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Discriminator string `json:"discriminator"`
		Avatar        string `json:"avatar"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode identity: %v", port.ErrUpstreamAuth, err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: identity response missing id", port.ErrUpstreamAuth)
	}

	return &domain.User{
		ID:            profile.ID,
		Username:      profile.Username,
		Discriminator: profile.Discriminator,
		Avatar:        profile.Avatar,
	}, nil
}

// FetchGuilds fetches the user's guild list via /users/@me/guilds.
// Discord sends the permissions bitmask as a decimal string.
func (p *DiscordProvider) FetchGuilds(ctx context.Context, accessToken string) ([]domain.GuildMembership, error) {
	body, err := p.get(ctx, "/users/@me/guilds", accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch guilds: %w", err)
	}

	var raw []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Icon        string `json:"icon"`
		Owner       bool   `json:"owner"`
		Permissions string `json:"permissions"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode guilds: %w", err)
	}

	memberships := make([]domain.GuildMembership, 0, len(raw))
	for _, g := range raw {
		perms, err := strconv.ParseUint(g.Permissions, 10, 64)
		if err != nil {
			// Unparseable bitmask grants nothing.
			perms = 0
		}
		memberships = append(memberships, domain.GuildMembership{
			GuildID:     g.ID,
			GuildName:   g.Name,
			GuildIcon:   g.Icon,
			Owner:       g.Owner,
			Permissions: perms,
		})
	}
	return memberships, nil
}

func (p *DiscordProvider) get(ctx context.Context, path, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	return body, nil
}
