package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
)

// AuthService handles the browser login flow: code exchange, identity fetch,
// guild sync, and session creation.
type AuthService struct {
	provider   port.AuthProvider
	sessions   port.SessionStore
	guilds     port.GuildStore
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(provider port.AuthProvider, sessions port.SessionStore, guilds port.GuildStore, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		provider:   provider,
		sessions:   sessions,
		guilds:     guilds,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// AuthURL returns the provider consent URL for the given state nonce.
func (s *AuthService) AuthURL(state string) string {
	return s.provider.AuthURL(state)
}

// HandleCallback completes the OAuth2 callback: it exchanges the code,
// fetches identity and guilds, syncs memberships, and creates a session.
// The session token is returned for the handler to set as a cookie.
//
// A failed guild fetch does not fail the login — identity is already
// confirmed at that point — but it also must not wipe previously synced
// memberships, so the replace is skipped entirely in that case.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (string, *domain.User, error) {
	tokens, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("exchange code: %w", err)
	}

	user, err := s.provider.FetchIdentity(ctx, tokens.AccessToken)
	if err != nil {
		return "", nil, fmt.Errorf("fetch identity: %w", err)
	}

	memberships, guildErr := s.provider.FetchGuilds(ctx, tokens.AccessToken)

	if err := s.guilds.UpsertUser(ctx, user); err != nil {
		return "", nil, fmt.Errorf("upsert user: %w", err)
	}

	if guildErr != nil {
		slog.Warn("guild list fetch degraded, keeping previous memberships",
			"user_id", user.ID, "error", guildErr)
	} else if err := s.guilds.ReplaceMemberships(ctx, user.ID, memberships); err != nil {
		return "", nil, fmt.Errorf("sync guilds: %w", err)
	}

	now := s.now()
	session := &domain.Session{
		Token:        domain.NewSessionToken(),
		UserID:       user.ID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("user authenticated", "user_id", user.ID, "username", user.Username,
		"guilds_synced", guildErr == nil, "guild_count", len(memberships))
	return session.Token, user, nil
}

// Logout destroys the session. Destroying an absent session is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}
