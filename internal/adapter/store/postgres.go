package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vermion/dashboard/internal/domain"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the dashboard tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			discriminator TEXT NOT NULL DEFAULT '',
			avatar        TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token         TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id),
			access_token  TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS guild_memberships (
			user_id     TEXT NOT NULL REFERENCES users(id),
			guild_id    TEXT NOT NULL,
			guild_name  TEXT NOT NULL DEFAULT '',
			guild_icon  TEXT NOT NULL DEFAULT '',
			owner       BOOLEAN NOT NULL DEFAULT FALSE,
			permissions BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, guild_id)
		)`,
		`CREATE TABLE IF NOT EXISTS guild_configs (
			guild_id     TEXT PRIMARY KEY,
			test_message TEXT NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id          BIGSERIAL PRIMARY KEY,
			user_id     TEXT NOT NULL,
			action      TEXT NOT NULL,
			resource    TEXT NOT NULL,
			resource_id TEXT NOT NULL DEFAULT '',
			details     JSONB NOT NULL DEFAULT '{}',
			ip          TEXT NOT NULL DEFAULT '',
			user_agent  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Users ---

// UpsertUser inserts or refreshes an identity by its Discord id.
func (s *PostgresStore) UpsertUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, username, discriminator, avatar)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			discriminator = EXCLUDED.discriminator,
			avatar = EXCLUDED.avatar,
			updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.Discriminator, u.Avatar); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// --- Sessions ---

// CreateSession persists a new session row.
func (s *PostgresStore) CreateSession(ctx context.Context, session *domain.Session) error {
	query := `INSERT INTO sessions (token, user_id, access_token, refresh_token, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.AccessToken, session.RefreshToken,
		session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionUser resolves a session token to its user. Missing and expired
// sessions both resolve to (nil, nil); expiry is enforced here even when the
// row still physically exists.
func (s *PostgresStore) SessionUser(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	query := `SELECT u.id, u.username, u.discriminator, u.avatar, u.created_at, u.updated_at, se.expires_at
	          FROM sessions se JOIN users u ON u.id = se.user_id
	          WHERE se.token = $1`

	var user domain.User
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&user.ID, &user.Username, &user.Discriminator, &user.Avatar,
		&user.CreatedAt, &user.UpdatedAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !now.Before(expiresAt) {
		return nil, nil
	}
	return &user, nil
}

// DeleteSession removes a session row. Idempotent.
func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their TTL.
func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// --- Guild memberships ---

// ReplaceMemberships replaces the user's whole membership set in a single
// transaction. The delete and inserts commit together, so a concurrent
// reader sees either the old set or the new one.
func (s *PostgresStore) ReplaceMemberships(ctx context.Context, userID string, memberships []domain.GuildMembership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin membership replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM guild_memberships WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}

	insert := `INSERT INTO guild_memberships (user_id, guild_id, guild_name, guild_icon, owner, permissions)
	           VALUES ($1, $2, $3, $4, $5, $6)`
	for _, m := range memberships {
		if _, err := tx.ExecContext(ctx, insert,
			userID, m.GuildID, m.GuildName, m.GuildIcon, m.Owner, int64(m.Permissions),
		); err != nil {
			return fmt.Errorf("insert membership %s: %w", m.GuildID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit membership replace: %w", err)
	}
	return nil
}

// Membership returns the membership row for (user, guild), or (nil, nil).
func (s *PostgresStore) Membership(ctx context.Context, userID, guildID string) (*domain.GuildMembership, error) {
	query := `SELECT user_id, guild_id, guild_name, guild_icon, owner, permissions
	          FROM guild_memberships WHERE user_id = $1 AND guild_id = $2`

	var m domain.GuildMembership
	var perms int64
	err := s.db.QueryRowContext(ctx, query, userID, guildID).Scan(
		&m.UserID, &m.GuildID, &m.GuildName, &m.GuildIcon, &m.Owner, &perms,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	m.Permissions = uint64(perms)
	return &m, nil
}

// ListMemberships returns all membership rows for a user.
func (s *PostgresStore) ListMemberships(ctx context.Context, userID string) ([]domain.GuildMembership, error) {
	query := `SELECT user_id, guild_id, guild_name, guild_icon, owner, permissions
	          FROM guild_memberships WHERE user_id = $1 ORDER BY guild_name`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.GuildMembership
	for rows.Next() {
		var m domain.GuildMembership
		var perms int64
		if err := rows.Scan(&m.UserID, &m.GuildID, &m.GuildName, &m.GuildIcon, &m.Owner, &perms); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Permissions = uint64(perms)
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// --- Guild configs ---

// SaveTestMessage inserts or updates the guild's test message.
func (s *PostgresStore) SaveTestMessage(ctx context.Context, guildID, message string) error {
	query := `INSERT INTO guild_configs (guild_id, test_message)
	          VALUES ($1, $2)
	          ON CONFLICT (guild_id) DO UPDATE SET
	              test_message = EXCLUDED.test_message,
	              updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, guildID, message); err != nil {
		return fmt.Errorf("save test message: %w", err)
	}
	return nil
}

// TestMessage returns the guild's configured test message, if any.
func (s *PostgresStore) TestMessage(ctx context.Context, guildID string) (string, bool, error) {
	var message string
	err := s.db.QueryRowContext(ctx, `SELECT test_message FROM guild_configs WHERE guild_id = $1`, guildID).Scan(&message)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get test message: %w", err)
	}
	return message, true, nil
}

// --- Audit logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err := s.db.ExecContext(context.Background(), query,
		userID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs for a user, newest first.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, user_id, action, resource, resource_id, details::text, ip, user_agent, created_at
	          FROM audit_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
