package models

import (
	"time"

	"github.com/google/uuid"
)

// Token is a refresh token owned by exactly one user. Expiry and revocation
// are soft states; rows are never removed.
type Token struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	IsRevoked bool      `json:"is_revoked" db:"is_revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsValid reports whether the token is neither revoked nor expired at now
func (t *Token) IsValid(now time.Time) bool {
	return now.UTC().Before(t.ExpiresAt) && !t.IsRevoked
}

// Revoke marks the token revoked. Calling it again changes nothing.
func (t *Token) Revoke() {
	t.IsRevoked = true
}
