package port

import "errors"

// Sentinel errors used across ports. Handlers map these to HTTP status codes.
var (
	ErrUpstreamAuth      = errors.New("identity provider failure")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("permission denied")
	ErrInvalidGuildID    = errors.New("malformed guild id")
	ErrConfigNotFound    = errors.New("guild config not found")
	ErrChannelNotInGuild = errors.New("channel does not belong to guild")
	ErrBotUpstream       = errors.New("discord bot request failed")
)
