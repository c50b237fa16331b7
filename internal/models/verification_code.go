package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode is the single active one-time code for an email address.
// It is keyed by email rather than by user because verification happens
// before the account exists.
type VerificationCode struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	Code            int        `json:"-" db:"code"`
	Attempts        int        `json:"attempts" db:"attempts"`
	ExpiresAt       time.Time  `json:"expires_at" db:"expires_at"`
	RequestCount    int        `json:"request_count" db:"request_count"`
	WindowStartedAt time.Time  `json:"window_started_at" db:"window_started_at"`
	BlockedUntil    *time.Time `json:"blocked_until,omitempty" db:"blocked_until"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether now is past the expiration instant
func (v *VerificationCode) IsExpired(now time.Time) bool {
	return now.UTC().After(v.ExpiresAt)
}

// IsBlocked reports whether issuance is suspended at now
func (v *VerificationCode) IsBlocked(now time.Time) bool {
	return v.BlockedUntil != nil && now.UTC().Before(*v.BlockedUntil)
}

// ValidFor returns the remaining lifetime of the code, zero once expired
func (v *VerificationCode) ValidFor(now time.Time) time.Duration {
	d := v.ExpiresAt.Sub(now.UTC())
	if d < 0 {
		return 0
	}
	return d
}
