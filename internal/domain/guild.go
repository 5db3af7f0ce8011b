package domain

// Permission bits from Discord's published permission bitmask.
// ADMINISTRATOR implies every other permission, per Discord's own semantics.
const (
	PermissionAdministrator uint64 = 1 << 3
	PermissionManageGuild   uint64 = 1 << 5
)

// GuildMembership is one row of a user's guild list as reported by
// /users/@me/guilds. The whole set is replaced on every login; rows are
// never patched in place.
type GuildMembership struct {
	UserID      string `json:"user_id"     db:"user_id"`
	GuildID     string `json:"guild_id"    db:"guild_id"`
	GuildName   string `json:"guild_name"  db:"guild_name"`
	GuildIcon   string `json:"guild_icon"  db:"guild_icon"`
	Owner       bool   `json:"owner"       db:"owner"`
	Permissions uint64 `json:"permissions" db:"permissions"`
}

// CanManage reports whether this membership is allowed to administer the
// guild's bot configuration.
func (m *GuildMembership) CanManage() bool {
	if m.Owner {
		return true
	}
	return m.Permissions&(PermissionAdministrator|PermissionManageGuild) != 0
}

// ManagedGuild is a manageable guild annotated with live bot presence.
// Presence is derived on every request, never stored.
type ManagedGuild struct {
	GuildMembership
	BotPresent bool `json:"bot_present"`
}

// GuildConfig is the per-guild bot configuration edited from the dashboard.
type GuildConfig struct {
	GuildID     string `json:"guild_id"     db:"guild_id"`
	TestMessage string `json:"test_message" db:"test_message"`
}
