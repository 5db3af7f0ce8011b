package domain

import "time"

// User is a Discord identity as returned by /users/@me.
// Fields are replaced wholesale on every login; the backend never edits them.
type User struct {
	ID            string    `json:"id"            db:"id"` // Discord snowflake
	Username      string    `json:"username"      db:"username"`
	Discriminator string    `json:"discriminator" db:"discriminator"`
	Avatar        string    `json:"avatar"        db:"avatar"`
	CreatedAt     time.Time `json:"created_at"    db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"    db:"updated_at"`
}

// TokenPair holds the OAuth2 tokens returned after code exchange.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty"`
}
