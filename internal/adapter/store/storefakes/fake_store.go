// Package storefakes provides an in-memory implementation of the store ports
// for tests. Membership replacement happens under a single lock, giving the
// same reader guarantee as the Postgres transaction.
package storefakes

import (
	"context"
	"sync"
	"time"

	"github.com/vermion/dashboard/internal/domain"
)

// FakeStore implements port.SessionStore, port.GuildStore, port.ConfigStore
// and port.AuditStore backed by maps.
type FakeStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	sessions    map[string]domain.Session
	memberships map[string][]domain.GuildMembership // keyed by user id
	configs     map[string]string                   // keyed by guild id
	audits      []domain.AuditLog

	// CreateSessionErr, when set, is returned by CreateSession.
	CreateSessionErr error
}

// NewFakeStore returns an empty in-memory store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:       map[string]domain.User{},
		sessions:    map[string]domain.Session{},
		memberships: map[string][]domain.GuildMembership{},
		configs:     map[string]string{},
	}
}

// --- port.GuildStore ---

func (f *FakeStore) UpsertUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *user
	if existing, ok := f.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	f.users[u.ID] = u
	return nil
}

func (f *FakeStore) ReplaceMemberships(_ context.Context, userID string, memberships []domain.GuildMembership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	replaced := make([]domain.GuildMembership, len(memberships))
	for i, m := range memberships {
		m.UserID = userID
		replaced[i] = m
	}
	f.memberships[userID] = replaced
	return nil
}

func (f *FakeStore) Membership(_ context.Context, userID, guildID string) (*domain.GuildMembership, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, m := range f.memberships[userID] {
		if m.GuildID == guildID {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *FakeStore) ListMemberships(_ context.Context, userID string) ([]domain.GuildMembership, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.GuildMembership(nil), f.memberships[userID]...), nil
}

// --- port.SessionStore ---

func (f *FakeStore) CreateSession(_ context.Context, session *domain.Session) error {
	if f.CreateSessionErr != nil {
		return f.CreateSessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Token] = *session
	return nil
}

func (f *FakeStore) SessionUser(_ context.Context, token string, now time.Time) (*domain.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	session, ok := f.sessions[token]
	if !ok || session.Expired(now) {
		return nil, nil
	}
	user, ok := f.users[session.UserID]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}

func (f *FakeStore) DeleteSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *FakeStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, session := range f.sessions {
		if session.Expired(now) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

// SessionCount reports how many sessions are stored, expired or not.
func (f *FakeStore) SessionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.sessions)
}

// Session returns the raw stored session for assertions.
func (f *FakeStore) Session(token string) (domain.Session, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.sessions[token]
	return s, ok
}

// --- port.ConfigStore ---

func (f *FakeStore) SaveTestMessage(_ context.Context, guildID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[guildID] = message
	return nil
}

func (f *FakeStore) TestMessage(_ context.Context, guildID string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	message, ok := f.configs[guildID]
	return message, ok, nil
}

// --- port.AuditStore ---

func (f *FakeStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, domain.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (f *FakeStore) ListAuditLogs(_ context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var logs []domain.AuditLog
	for i := len(f.audits) - 1; i >= 0 && (limit <= 0 || len(logs) < limit); i-- {
		if f.audits[i].UserID == userID {
			logs = append(logs, f.audits[i])
		}
	}
	return logs, nil
}
