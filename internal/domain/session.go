package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Session binds an opaque browser-held token to an authenticated user.
// The token is a bearer credential: it must never be derivable from the
// user id or a timestamp.
type Session struct {
	Token        string    `json:"-"             db:"token"`
	UserID       string    `json:"user_id"       db:"user_id"`
	AccessToken  string    `json:"-"             db:"access_token"` // never serialized to JSON
	RefreshToken string    `json:"-"             db:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"    db:"expires_at"`
}

// Expired reports whether the session is past its TTL at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NewSessionToken returns a 256-bit random token, hex-encoded.
func NewSessionToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
