package port

import (
	"context"

	"github.com/vermion/dashboard/internal/domain"
)

// AuthProvider abstracts the OAuth2 identity provider (Discord).
// Implementations handle the authorization-code exchange and the resource
// fetches that follow it.
type AuthProvider interface {
	// AuthURL returns the full OAuth2 authorization URL for redirecting the user.
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code for an access/refresh token pair.
	ExchangeCode(ctx context.Context, code string) (*domain.TokenPair, error)

	// FetchIdentity fetches the authenticated user's identity with the access token.
	FetchIdentity(ctx context.Context, accessToken string) (*domain.User, error)

	// FetchGuilds fetches the user's guild list with the access token.
	// A nil error with an empty slice means the user genuinely belongs to no
	// guilds; an error means the list could not be fetched at all. Callers
	// must not treat those two outcomes the same way.
	FetchGuilds(ctx context.Context, accessToken string) ([]domain.GuildMembership, error)
}
