package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
)

// GuildService answers guild-scoped questions: which guilds a user may
// manage, and whether a given (user, guild) pair clears the gate.
type GuildService struct {
	store port.GuildStore
	bot   port.BotGateway
}

// NewGuildService creates a new guild service.
func NewGuildService(store port.GuildStore, bot port.BotGateway) *GuildService {
	return &GuildService{store: store, bot: bot}
}

// Authorize reports whether the user may act on the guild's configuration.
// It reads only the stored membership set — no network calls — so every
// mutating handler can run it before touching anything.
func (s *GuildService) Authorize(ctx context.Context, userID, guildID string) (bool, error) {
	membership, err := s.store.Membership(ctx, userID, guildID)
	if err != nil {
		return false, fmt.Errorf("authorize %s/%s: %w", userID, guildID, err)
	}
	return membership != nil && membership.CanManage(), nil
}

// ManagedGuilds returns the guilds the user can manage, each annotated with
// live bot presence. A presence lookup failure downgrades that one guild to
// bot_present=false rather than failing the listing.
func (s *GuildService) ManagedGuilds(ctx context.Context, userID string) ([]domain.ManagedGuild, error) {
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	guilds := make([]domain.ManagedGuild, 0, len(memberships))
	for _, m := range memberships {
		if !m.CanManage() {
			continue
		}
		present, err := s.bot.GuildPresent(ctx, m.GuildID)
		if err != nil {
			slog.Warn("bot presence lookup failed", "guild_id", m.GuildID, "error", err)
			present = false
		}
		guilds = append(guilds, domain.ManagedGuild{GuildMembership: m, BotPresent: present})
	}
	return guilds, nil
}
