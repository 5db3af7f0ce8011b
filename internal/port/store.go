package port

import (
	"context"
	"time"

	"github.com/vermion/dashboard/internal/domain"
)

// SessionStore persists opaque session tokens mapped to authenticated users.
type SessionStore interface {
	// CreateSession persists a new session. The session must not be
	// observable by SessionUser unless persistence succeeded.
	CreateSession(ctx context.Context, session *domain.Session) error

	// SessionUser resolves a session token to its user. It returns
	// (nil, nil) for missing, expired, or malformed tokens — an anonymous
	// request is a normal outcome, not an error.
	SessionUser(ctx context.Context, token string, now time.Time) (*domain.User, error)

	// DeleteSession removes a session. Deleting an absent session is not
	// an error.
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes sessions past their TTL and returns
	// how many were removed. Expiry is already enforced at lookup; this
	// exists for storage hygiene only.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// GuildStore persists identities and their guild membership sets.
type GuildStore interface {
	// UpsertUser inserts or refreshes an identity by its Discord id.
	UpsertUser(ctx context.Context, user *domain.User) error

	// ReplaceMemberships atomically replaces the user's whole membership
	// set. A concurrent reader observes either the old set or the new set,
	// never a mix.
	ReplaceMemberships(ctx context.Context, userID string, memberships []domain.GuildMembership) error

	// Membership returns the membership row for (user, guild), or
	// (nil, nil) when none exists.
	Membership(ctx context.Context, userID, guildID string) (*domain.GuildMembership, error)

	// ListMemberships returns all membership rows for a user.
	ListMemberships(ctx context.Context, userID string) ([]domain.GuildMembership, error)
}

// ConfigStore persists per-guild bot configuration.
type ConfigStore interface {
	// SaveTestMessage inserts or updates the guild's test message.
	SaveTestMessage(ctx context.Context, guildID, message string) error

	// TestMessage returns the guild's test message. The bool reports
	// whether one has been configured.
	TestMessage(ctx context.Context, guildID string) (string, bool, error)
}

// AuditStore persists and lists request audit records.
type AuditStore interface {
	WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error
	ListAuditLogs(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error)
}
